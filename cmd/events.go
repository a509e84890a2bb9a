package cmd

import (
	"fmt"
	"io"

	"github.com/josephlewis42/hooksh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the command event log.",
}

// eventReport reads every event in the configured log into a report and
// prints it as YAML.
func eventReport(newReport func() (update func(*logger.Event), out interface{})) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig()
		if err != nil {
			return err
		}
		if config.EventLogPath() == "" {
			return fmt.Errorf("the event log is disabled in the configuration")
		}

		fd, err := config.ReadEventLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		return writeReport(cmd.OutOrStdout(), fd, newReport)
	}
}

func writeReport(w io.Writer, events io.Reader, newReport func() (func(*logger.Event), interface{})) error {
	update, report := newReport()
	if err := logger.ReadJSONLinesLog(events, update); err != nil {
		return err
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, string(out))
	return nil
}

func summaryReport() (func(*logger.Event), interface{}) {
	var report logger.Report
	return report.Update, &report
}

func bugReport() (func(*logger.Event), interface{}) {
	report := logger.NewBugReport()
	return report.Update, report
}

func sessionsReport() (func(*logger.Event), interface{}) {
	var report logger.SessionReport
	return report.Update, &report
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	RunE:  eventReport(summaryReport),
}

var bugsCommand = &cobra.Command{
	Use:   "bugs",
	Short: "Show events that point to broken scripts.",
	RunE:  eventReport(bugReport),
}

var sessionsCommand = &cobra.Command{
	Use:   "sessions",
	Short: "Show the commands each script ran.",
	RunE:  eventReport(sessionsReport),
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(bugsCommand)
	eventsCmd.AddCommand(sessionsCommand)
}
