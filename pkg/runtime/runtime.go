// Package runtime wires configuration, the connection store and the HTTP
// server into the dashforged daemon.
package runtime

import (
	"fmt"
	"log"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dashforge/dashforge/pkg/config"
	"github.com/dashforge/dashforge/pkg/connections"
	dashforge_http "github.com/dashforge/dashforge/pkg/http"
	"github.com/dashforge/dashforge/pkg/loggers"
	"github.com/dashforge/dashforge/pkg/metabase"
	"github.com/dashforge/dashforge/pkg/version"
)

type DashforgeRuntime struct {
	config      *config.DashforgeConfiguration
	viper       *viper.Viper
	store       *connections.Store
	sessions    *metabase.SessionManager
	auditLogger *zap.Logger
}

var (
	runtime *DashforgeRuntime
	zaplog  *zap.Logger = loggers.ZapLogger()
)

func GetDashforgeRuntime() *DashforgeRuntime {
	if runtime == nil {
		runtime = &DashforgeRuntime{
			viper: viper.New(),
		}
	}
	return runtime
}

func (r *DashforgeRuntime) LoadConfig() error {
	var err error
	if r.config == nil {
		r.config, err = config.LoadRuntimeConfiguration(r.viper)
	}

	return err
}

func (r *DashforgeRuntime) BindFlags(developmentFlag *pflag.Flag) error {
	return r.viper.BindPFlag("development_mode", developmentFlag)
}

func (r *DashforgeRuntime) Run() error {
	if err := r.LoadConfig(); err != nil {
		return err
	}

	cipher, err := connections.NewCipher(r.config.EncryptionKey)
	if err != nil {
		return err
	}

	r.store, err = connections.NewStore(config.AppDashforgePath(), cipher)
	if err != nil {
		return err
	}

	r.sessions = metabase.NewSessionManager(r.store)

	r.auditLogger, err = loggers.NewFileLogger("dashforged", config.AppDashforgePath())
	if err != nil {
		zaplog.Sugar().Warnf("audit log disabled: %s", err.Error())
		r.auditLogger = nil
	}

	err = dashforge_http.NewServer(r.config.HttpPort, r.store, r.sessions).Start()
	if err != nil {
		return err
	}

	if r.auditLogger != nil {
		r.auditLogger.Sugar().Infow("runtime started",
			"version", version.Version(),
			"http_port", r.config.HttpPort,
			"development_mode", r.config.DevelopmentMode)
	}

	r.printStartupBanner()

	if r.config.DevelopmentMode {
		if err := watchSpecs(); err != nil {
			zaplog.Sugar().Errorf("error watching for specs: %s", err.Error())
			return err
		}
	}

	return nil
}

func (r *DashforgeRuntime) Shutdown() {
	log.Println("Shutting down...")

	if r.store != nil {
		if err := r.store.Close(); err != nil {
			zaplog.Sugar().Debug(err.Error())
		}
	}

	if r.auditLogger != nil {
		r.auditLogger.Sugar().Info("runtime stopped")
		_ = r.auditLogger.Sync()
	}

	loggers.ZapLoggerSync()
}

func (r *DashforgeRuntime) printStartupBanner() {
	fmt.Printf("- Runtime version: %s\n", version.Version())
	if r.config.DevelopmentMode {
		fmt.Print("- ")
		fmt.Println(aurora.Yellow("Development mode"))
	}
	fmt.Print("- ")
	fmt.Println(aurora.Green(fmt.Sprintf("Listening on http://localhost:%d", r.config.HttpPort)))
	fmt.Println()
	fmt.Println("Use Ctrl-C to stop")
}
