package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/roommates-api/internal/config"
	"github.com/yukikurage/roommates-api/internal/database"
	"github.com/yukikurage/roommates-api/internal/logging"
	"github.com/yukikurage/roommates-api/internal/repository"
	"github.com/yukikurage/roommates-api/internal/services"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "roommatesctl",
		Short:   "Maintenance commands for the roommates API",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(os.Getenv("LOG_LEVEL"))
		},
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(repairCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := connect(); err != nil {
				return err
			}
			return database.Migrate()
		},
	}
}

func scheduleCmd() *cobra.Command {
	var groupID uint64

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Assign this week's recurring tasks",
		Long: `Assign this week's recurring tasks for every group, or for one group
with --group. Running it again in the same week adds nothing.

Examples:
  roommatesctl schedule
  roommatesctl schedule --group 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := connect()
			if err != nil {
				return err
			}

			ids := []uint64{groupID}
			if groupID == 0 {
				if ids, err = env.groupRepo.ListIDs(); err != nil {
					return fmt.Errorf("failed to list groups: %w", err)
				}
			}

			failed := 0
			for _, id := range ids {
				tasks, err := env.tasks.AssignWeeklyTasksForGroup(id)
				if err != nil {
					failed++
					slog.Error("Failed to schedule group", "group_id", id, "error", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "group %d: %d task(s) assigned for week of %s\n",
					id, len(tasks), env.tasks.CurrentWeek().Format("2006-01-02"))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d group(s) failed", failed, len(ids))
			}
			return nil
		},
	}

	cmd.Flags().Uint64VarP(&groupID, "group", "g", 0, "only schedule this group")

	return cmd
}

func repairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Reassign stale group owners",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := connect()
			if err != nil {
				return err
			}

			ids, err := env.groupRepo.ListIDs()
			if err != nil {
				return fmt.Errorf("failed to list groups: %w", err)
			}

			degraded := 0
			for _, id := range ids {
				view, err := env.groups.DescribeGroupByID(id)
				if err != nil {
					return fmt.Errorf("group %d: %w", id, err)
				}
				if view.Degraded {
					degraded++
					fmt.Fprintf(cmd.OutOrStdout(), "group %d: no member can own it\n", id)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "checked %d group(s), %d degraded\n", len(ids), degraded)
			return nil
		},
	}
}

type cliEnv struct {
	groupRepo repository.GroupRepository
	groups    *services.GroupService
	tasks     *services.TaskService
}

func connect() (*cliEnv, error) {
	cfg := config.Load()
	if err := database.Connect(cfg); err != nil {
		return nil, err
	}

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	groups := services.NewGroupService(groupRepo, userRepo, nil)

	return &cliEnv{
		groupRepo: groupRepo,
		groups:    groups,
		tasks:     services.NewTaskService(repository.NewTaskRepository(db), groups, nil, nil, cfg.Location()),
	}, nil
}
