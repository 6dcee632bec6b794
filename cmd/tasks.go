//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/fieldcad/cadfield/cad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/tasklist"
	"github.com/spf13/cobra"
	"io"
	"strings"
	"text/tabwriter"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Print a task list from the CAD backend",
	Long: "Print a task list from the CAD backend\n\n" +
		"Syncs once from the configured backend, then prints one category of the unscoped task list.",
	Run: runTasks,
}

var (
	tasksEnvFilename string
	tasksCategory    string
	tasksSearch      string
	tasksPriorities  []string
	tasksJSON        bool
)

type tasksOptions struct {
	kind       tasklist.Kind
	search     string
	priorities []string
	asJSON     bool
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.Flags().StringVar(&tasksEnvFilename, envfileFlagName, envFileDefaultName,
		"An env file from which to load the backend configuration")
	tasksCmd.Flags().StringVar(&tasksCategory, "category", string(tasklist.KindIncident),
		"One of incident, patrol, broadcast, or resource")
	tasksCmd.Flags().StringVar(&tasksSearch, "search", "", "Only show items matching this text")
	tasksCmd.Flags().StringSliceVar(&tasksPriorities, "priority", nil,
		"Only show incidents of these grades, e.g. --priority P1,P2")
	tasksCmd.Flags().BoolVar(&tasksJSON, "json", false, "Print the task list view as JSON")
}

func runTasks(cmd *cobra.Command, args []string) {
	cfg := mustApplyEnvConfig(conf.DefaultCAD(), tasksEnvFilename)
	must(runTasksInternal(cmd.Context(), cfg, tasksOptions{
		kind:       tasklist.Kind(tasksCategory),
		search:     tasksSearch,
		priorities: tasksPriorities,
		asJSON:     tasksJSON,
	}, cmd.OutOrStdout()))
}

func runTasksInternal(ctx context.Context, cfg *conf.CADConfig, opts tasksOptions, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("[Validate]: %w", err)
	}
	filter := tasklist.DefaultFilter()
	if len(opts.priorities) > 0 {
		filter.Priorities = nil
		for _, p := range opts.priorities {
			g, err := cad.ParseGrade(p)
			if err != nil {
				return fmt.Errorf("[ParseGrade]: %w", err)
			}
			filter.Priorities = append(filter.Priorities, g)
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cadStore := cadstate.New(mustLoadCatalog(cfg))
	client := mustBackendClient(ctx, cfg)
	if err := cadstate.NewSyncer(cadStore, client, nil, 0).SyncNow(ctx); err != nil {
		return fmt.Errorf("[SyncNow]: %w", err)
	}

	agg := tasklist.NewAggregator(tasklist.NewRegistry(cadStore.ViewFor("")), tasklist.WithFilter(filter))
	if err := agg.SelectKind(opts.kind); err != nil {
		return fmt.Errorf("[SelectKind]: %w", err)
	}
	agg.SetSearch(opts.search)
	view := agg.View()

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("[Encode]: %w", err)
		}
		return nil
	}
	return printView(w, view)
}

func printView(w io.Writer, view tasklist.View) error {
	badges := make([]string, 0, len(view.Badges))
	for _, b := range view.Badges {
		badges = append(badges, fmt.Sprintf("%v %d", b.ShortTitle, b.Count))
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(badges, " | "))
	for _, section := range view.Sections {
		_, _ = fmt.Fprintf(tw, "\n== %v ==\n", section.Title)
		for _, item := range section.Items {
			_, _ = fmt.Fprintf(tw, "%v\t%v\t%v\t%v\n", item.ID, item.Badge, item.Title, item.Subtitle)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("[Flush]: %w", err)
	}
	return nil
}
