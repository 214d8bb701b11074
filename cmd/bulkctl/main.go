package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/client"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	authToken string
	api       *client.Client
)

func main() {
	root := &cobra.Command{
		Use:   "bulkctl",
		Short: "Command line client for the pigweb bulk import API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if authToken == "" {
				authToken = os.Getenv("PIGWEB_TOKEN")
			}
			api = client.New(serverURL, authToken)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", envOr("PIGWEB_SERVER", "http://localhost:8080"), "API server base URL")
	root.PersistentFlags().StringVar(&authToken, "token", "", "API token (defaults to PIGWEB_TOKEN)")

	root.AddCommand(whoamiCmd(), createCmd(), listCmd(), showCmd(), acceptCmd(), rejectCmd(), renameCmd(), dupesCmd(), archiveCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"roles"},
		Short:   "Show the operator identity behind the current token",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := api.CheckAuth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", identity.Name, identity.ID)
			for _, role := range identity.Roles {
				fmt.Printf("  role: %s\n", role)
			}
			return nil
		},
	}
}

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name ...]",
		Short: "Start a bulk import from names given as arguments or on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					names = append(names, scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return err
				}
			}
			if len(names) == 0 {
				return fmt.Errorf("no names given")
			}

			imp, err := api.CreateImport(cmd.Context(), names)
			if err != nil {
				return err
			}
			printImport(imp)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	var creator string
	var limit, offset int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"fetch"},
		Short:   "List bulk imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter domain.BulkFilter
			if creator != "" {
				id, err := uuid.Parse(creator)
				if err != nil {
					return fmt.Errorf("invalid creator %q: %w", creator, err)
				}
				filter.Creators = []uuid.UUID{id}
			}
			filter.Limit = limit
			filter.Offset = offset

			imports, err := api.FetchImports(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, imp := range imports {
				state := "open"
				if imp.IsFinished() {
					state = "finished"
				}
				fmt.Printf("%s  %-24s %s  pending=%d accepted=%d rejected=%d\n",
					imp.ID, truncate(imp.Name, 24), state, len(imp.Pending), len(imp.Accepted), len(imp.Rejected))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&creator, "creator", "", "filter by creator UUID")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "results to skip")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <import-id>",
		Short: "Show one import with its buckets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp, err := fetchOne(cmd, args[0])
			if err != nil {
				return err
			}
			printImport(imp)
			return nil
		},
	}
}

func acceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <import-id> <name> [name ...]",
		Short: "Accept pending names, creating a record for each",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp, err := fetchOne(cmd, args[0])
			if err != nil {
				return err
			}

			patch := &domain.BulkPatch{ID: imp.ID}
			for _, arg := range args[1:] {
				name, ok := findPending(imp.Pending, arg)
				if !ok {
					return fmt.Errorf("%q is not pending in this import", arg)
				}
				pig, err := api.CreatePig(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("creating record for %q: %w", name, err)
				}
				patch.Pending = append(patch.Pending, domain.Action[string]{Op: domain.OpRemove, Value: name})
				patch.Accepted = append(patch.Accepted, domain.Action[uuid.UUID]{Op: domain.OpAdd, Value: pig.ID})
				fmt.Printf("accepted %q as %s\n", name, pig.ID)
			}

			_, err = api.PatchImport(cmd.Context(), patch)
			return err
		},
	}
}

func rejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <import-id> <name> [name ...]",
		Short: "Reject pending names as duplicates",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp, err := fetchOne(cmd, args[0])
			if err != nil {
				return err
			}

			patch := &domain.BulkPatch{ID: imp.ID}
			for _, arg := range args[1:] {
				name, ok := findPending(imp.Pending, arg)
				if !ok {
					return fmt.Errorf("%q is not pending in this import", arg)
				}
				patch.Pending = append(patch.Pending, domain.Action[string]{Op: domain.OpRemove, Value: name})
				patch.Rejected = append(patch.Rejected, domain.Action[string]{Op: domain.OpAdd, Value: name})
			}

			if _, err := api.PatchImport(cmd.Context(), patch); err != nil {
				return err
			}
			fmt.Printf("rejected %d name(s)\n", len(args[1:]))
			return nil
		},
	}
}

func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <import-id> <old-name> <new-name>",
		Short: "Correct the spelling of a pending name",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp, err := fetchOne(cmd, args[0])
			if err != nil {
				return err
			}
			name, ok := findPending(imp.Pending, args[1])
			if !ok {
				return fmt.Errorf("%q is not pending in this import", args[1])
			}

			patch := &domain.BulkPatch{
				ID:      imp.ID,
				Pending: []domain.Action[string]{{Op: domain.OpUpdate, Value: name, To: args[2]}},
			}
			if _, err := api.PatchImport(cmd.Context(), patch); err != nil {
				return err
			}
			fmt.Printf("renamed %q to %q\n", name, args[2])
			return nil
		},
	}
}

func dupesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dupes <name>",
		Short: "Show records similar to the given name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pigs, err := api.FetchPigs(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			if len(pigs) == 0 {
				fmt.Println("no similar records")
				return nil
			}
			for _, pig := range pigs {
				fmt.Printf("%s  %s\n", pig.ID, pig.Name)
			}
			return nil
		},
	}
}

func archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <import-id>",
		Short: "Export a finished import to object storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid import id %q: %w", args[0], err)
			}
			result, err := api.ArchiveImport(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("archived to %s\n%s\n", result.Key, result.URL)
			return nil
		},
	}
}

func fetchOne(cmd *cobra.Command, rawID string) (*domain.BulkImport, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid import id %q: %w", rawID, err)
	}
	imports, err := api.FetchImports(cmd.Context(), domain.BulkFilter{IDs: []uuid.UUID{id}})
	if err != nil {
		return nil, err
	}
	if len(imports) == 0 {
		return nil, fmt.Errorf("import %s not found", id)
	}
	return &imports[0], nil
}

func printImport(imp *domain.BulkImport) {
	fmt.Printf("import %s %q by %s\n", imp.ID, imp.Name, imp.Creator)
	fmt.Printf("started %s", imp.Started.Format("2006-01-02 15:04:05"))
	if imp.Finished != nil {
		fmt.Printf(", finished %s", imp.Finished.Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
	for _, name := range imp.Pending {
		fmt.Printf("  pending   %s\n", name)
	}
	for _, id := range imp.Accepted {
		fmt.Printf("  accepted  %s\n", id)
	}
	for _, name := range imp.Rejected {
		fmt.Printf("  rejected  %s\n", name)
	}
}

// findPending matches case-insensitively but returns the stored spelling,
// so the patch removes the entry that actually exists.
func findPending(list domain.StringList, name string) (string, bool) {
	for _, n := range list {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

// truncate shortens s to at most maxLen characters for column display.
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
