package cmd

import (
	"github.com/bimmerbailey/driftlog/internal/config"
	"github.com/bimmerbailey/driftlog/internal/logfile"
	"github.com/bimmerbailey/driftlog/internal/output"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates [flags] <file>...",
	Short: "List the templates learned from log files",
	Long: `Learn line templates from the given files in one session and list
them with the number of lines each file has per template.

Examples:
  driftlog templates app.log
  driftlog templates --masking IP,UUID good.log bad.log
  driftlog templates --format json 'logs/**/*.log'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTemplates,
}

func init() {
	templatesCmd.Flags().StringSlice("masking", nil, "built-in masking instructions to apply (UUID, EMAIL, IP, TIME, PATH, HEX)")
	templatesCmd.Flags().Int("min-count", 1, "hide templates with fewer lines in total")

	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	masking, _ := cmd.Flags().GetStringSlice("masking")
	minCount, _ := cmd.Flags().GetInt("min-count")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(masking) > 0 {
		cfg.Drain.Masking = masking
	}

	paths, err := config.ExpandGlobs(args)
	if err != nil {
		return err
	}

	writer, err := newWriter(cmd, cfg)
	if err != nil {
		return err
	}

	r := newRunner(cfg)
	files := make([]*logfile.LogFile, len(paths))
	for i, p := range paths {
		if files[i], err = r.load(p); err != nil {
			return err
		}
	}

	session, err := r.annotate(files...)
	if err != nil {
		return err
	}

	counts := make([]map[int]int, len(files))
	for i, f := range files {
		om, err := f.TemplateCounts()
		if err != nil {
			return err
		}
		counts[i] = make(map[int]int, om.Len())
		for pair := om.Oldest(); pair != nil; pair = pair.Next() {
			counts[i][pair.Key] = pair.Value
		}
	}

	listing := output.TemplateListing{Files: paths}
	for _, c := range session.Templates() {
		row := output.TemplateRow{ID: c.ID, Pattern: c.Pattern, Counts: make([]int, len(files))}
		for i := range files {
			row.Counts[i] = counts[i][c.ID]
			row.Total += row.Counts[i]
		}
		if row.Total < minCount {
			continue
		}
		listing.Templates = append(listing.Templates, row)
	}

	return writer.WriteTemplates(listing)
}
