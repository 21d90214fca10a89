// Command admin performs maintenance tasks against the chat database:
// schema migration, directory seeding and development token issuing.
package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "medchat-admin",
	Short: "Maintenance commands for the medchat backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			log.WithError(err).Fatal("cannot parse log-level")
		}
		log.SetLevel(level)

		formatter := new(log.TextFormatter)
		formatter.TimestampFormat = "2006-01-02T15:04:05.999Z07:00"
		formatter.FullTimestamp = true
		log.SetFormatter(formatter)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level (trace,debug,info,warn,error)")

	rootCmd.AddCommand(newMigrateCmd(), newSeedPatientCmd(), newSeedClinicianCmd(), newTokenCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("could not execute command")
	}
}
