package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dashforge/dashforge/pkg/runtime"
	"github.com/dashforge/dashforge/pkg/version"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

var RootCmd = &cobra.Command{
	Use:   "dashforged",
	Short: "Dashforge Runtime",
	Run: func(cmd *cobra.Command, args []string) {
		rt := runtime.GetDashforgeRuntime()
		if err := rt.BindFlags(cmd.Flags().Lookup("development")); err != nil {
			log.Fatalln(err)
		}

		err := rt.Run()
		if err != nil {
			log.Fatalln(err)
		}
		defer rt.Shutdown()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGTERM, os.Interrupt)
		<-stop
	},
}

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version())
	},
}

func init() {
	RootCmd.Flags().Bool("development", false, "Run in development mode (watches the specs directory)")
	RootCmd.AddCommand(VersionCmd)
}
