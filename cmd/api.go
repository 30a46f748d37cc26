package cmd

import (
	"context"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/promptbox/internal/library/llm"
	chatCtl "github.com/Laisky/promptbox/internal/web/chat/controller"
	chatSvc "github.com/Laisky/promptbox/internal/web/chat/service"
	projectCtl "github.com/Laisky/promptbox/internal/web/project/controller"
	projectDao "github.com/Laisky/promptbox/internal/web/project/dao"
	projectSvc "github.com/Laisky/promptbox/internal/web/project/service"
	userCtl "github.com/Laisky/promptbox/internal/web/user/controller"
	userDao "github.com/Laisky/promptbox/internal/web/user/dao"
	userSvc "github.com/Laisky/promptbox/internal/web/user/service"
	"github.com/Laisky/promptbox/internal/web"
	"github.com/Laisky/promptbox/library/db/mongo"
	"github.com/Laisky/promptbox/library/jwt"
	"github.com/Laisky/promptbox/library/log"
	"github.com/Laisky/promptbox/library/throttle"
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `REST API service for promptbox`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		runAPI(context.Background())
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

func runAPI(ctx context.Context) {
	db, err := mongo.NewDB(ctx, mongo.DialInfo{
		Addr:   gconfig.Shared.GetString("settings.db.promptbox.addr"),
		DBName: gconfig.Shared.GetString("settings.db.promptbox.db"),
		User:   gconfig.Shared.GetString("settings.db.promptbox.user"),
		Pwd:    gconfig.Shared.GetString("settings.db.promptbox.pwd"),
	})
	if err != nil {
		log.Logger.Panic("connect mongo", zap.Error(err))
	}
	defer db.Close(ctx)

	lifetime := jwt.DefaultLifetime
	if secs := gconfig.Shared.GetInt("settings.jwt.expires_secs"); secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}
	issuer, err := jwt.New([]byte(gconfig.Shared.GetString("settings.secret")), lifetime)
	if err != nil {
		log.Logger.Panic("setup jwt", zap.Error(err))
	}

	llmCli := llm.NewClient(
		gconfig.Shared.GetString("settings.llm.api_base"),
		time.Duration(gconfig.Shared.GetInt("settings.llm.timeout_secs"))*time.Second,
		nil,
	)
	apiKey := gconfig.Shared.GetString("settings.llm.api_key")

	logger := log.Logger.Named("api")

	users := userSvc.New(logger, userDao.New(logger, db))
	if err := users.Setup(ctx); err != nil {
		log.Logger.Panic("setup users", zap.Error(err))
	}

	projects := projectSvc.New(logger, projectDao.New(logger, db), llmCli, apiKey)
	chat := chatSvc.New(logger, projects, llmCli, apiKey)

	debug := gconfig.Shared.GetBool("debug")
	cfg := &web.Config{
		Listen:         gconfig.Shared.GetString("listen"),
		Debug:          debug,
		FrontendOrigin: gconfig.Shared.GetString("settings.frontend_origin"),
		MaxBodyBytes:   gconfig.Shared.GetInt64("settings.max_body_bytes"),
		RateLimit: throttle.Config{
			Window:      time.Duration(gconfig.Shared.GetInt("settings.ratelimit.window_secs")) * time.Second,
			MaxRequests: gconfig.Shared.GetInt("settings.ratelimit.max_requests"),
		},
	}
	applyConfigDefaults(cfg)

	web.RunServer(cfg, issuer, web.Controllers{
		Users:    userCtl.New(logger, users, issuer, debug),
		Projects: projectCtl.New(logger, projects, debug),
		Chat:     chatCtl.New(logger, chat, debug),
	})
}

// applyConfigDefaults fills the web config values that may be absent
// from the settings file.
func applyConfigDefaults(cfg *web.Config) {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20 // 1 MiB
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		cfg.RateLimit.MaxRequests = 120
	}
	if cfg.FrontendOrigin == "" {
		cfg.FrontendOrigin = "http://localhost:3000"
	}
}
