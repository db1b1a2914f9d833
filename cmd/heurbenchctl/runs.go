package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"heurbench/internal/logging"
	"heurbench/pkg/heurbench"
)

const defaultRunsLimit = 20

func newRunsCommand(stdout io.Writer, global *globalFlags) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			logger, err := logging.New(cmd.ErrOrStderr(), global.logLevel, global.logFormat)
			if err != nil {
				return err
			}
			if global.store == memoryStore {
				logger.Warn("the memory store starts empty in every process; use --store sqlite in a build with -tags sqlite to list earlier analyses")
			}
			client, err := heurbench.New(heurbench.Options{
				StoreKind:       global.store,
				DBPath:          global.dbPath,
				CredentialsFile: global.gcsCredentials,
				Logger:          logger,
			})
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.Init(cmd.Context()); err != nil {
				return err
			}

			items, err := client.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(stdout, items, jsonOut)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultRunsLimit, "max analyses to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit analyses as JSON")
	return cmd
}

func printRuns(w io.Writer, items []heurbench.RunItem, jsonOut bool) error {
	if jsonOut {
		type runsItem struct {
			AnalysisID   string  `json:"analysis_id"`
			CreatedAtUTC string  `json:"created_at_utc"`
			ResultsPath  string  `json:"results_path"`
			Scaling      float64 `json:"scaling"`
			Absolute     bool    `json:"absolute"`
			Instances    int     `json:"instances"`
			Algorithms   int     `json:"algorithms"`
			Seeds        int     `json:"seeds"`
			Leader       string  `json:"leader"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem{
				AnalysisID:   item.ID.String(),
				CreatedAtUTC: item.CreatedAtUTC.Format("2006-01-02T15:04:05Z"),
				ResultsPath:  item.ResultsPath,
				Scaling:      item.Scaling,
				Absolute:     item.Absolute,
				Instances:    item.Instances,
				Algorithms:   item.Algorithms,
				Seeds:        item.Seeds,
				Leader:       item.Leader,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no analyses found")
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "analysis_id=%s created=%q results=%s scaling=%g absolute=%t instances=%s algorithms=%d seeds=%d leader=%q\n",
			item.ID,
			humanize.Time(item.CreatedAtUTC),
			item.ResultsPath,
			item.Scaling,
			item.Absolute,
			humanize.Comma(int64(item.Instances)),
			item.Algorithms,
			item.Seeds,
			item.Leader,
		); err != nil {
			return err
		}
	}
	return nil
}
