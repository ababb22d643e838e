package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locvowork/school_management/internal/bootstrap"
	"github.com/locvowork/school_management/internal/database"
)

// CLI flags
var (
	preset      string
	numTeachers int
	numCourses  int
	confirmed   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seeder",
		Short: "School database maintenance",
		Long:  `Applies schema migrations and loads or clears demo courses and teachers.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE:  runMigrate,
	})

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo courses, teachers and course assignments",
		RunE:  runSeed,
	}
	seedCmd.Flags().StringVarP(&preset, "preset", "p", string(database.PresetMedium), "Data preset: small, medium, large, xlarge")
	seedCmd.Flags().IntVar(&numTeachers, "teachers", 0, "Number of teachers (overrides preset)")
	seedCmd.Flags().IntVar(&numCourses, "courses", 0, "Number of courses (overrides preset)")
	rootCmd.AddCommand(seedCmd)

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all teachers, courses and assignments",
		RunE:  runClear,
	}
	clearCmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "reindex",
		Short: "Push every teacher to the search index",
		RunE:  runReindex,
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func initApp(ctx context.Context) (*bootstrap.App, error) {
	app := bootstrap.NewApp()
	if err := app.InitializeStore(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := database.Migrate(ctx, app.DB, app.DBConfig.Dialect()); err != nil {
		return err
	}
	version, err := database.SchemaVersion(ctx, app.DB)
	if err != nil {
		return err
	}
	fmt.Printf("Schema at version %d\n", version)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	courses, teachers := database.GetPresetConfig(database.SeedPreset(preset))
	if numCourses > 0 {
		courses = numCourses
	}
	if numTeachers > 0 {
		teachers = numTeachers
	}
	fmt.Printf("Seeding %d courses and %d teachers\n", courses, teachers)

	stats, err := database.NewDataSeeder(app.DB, app.DBConfig.Dialect()).SeedData(ctx, courses, teachers)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	fmt.Printf("Inserted %d courses, %d teachers, %d assignments\n", stats.Courses, stats.Teachers, stats.Assignments)

	if app.Search != nil {
		n, err := app.Teachers.ReindexAll(ctx)
		if err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}
		fmt.Printf("Indexed %d teachers\n", n)
	}
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if !confirmed {
		fmt.Print("This will delete all teachers and courses. Continue? (yes/no): ")
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(strings.TrimSpace(response)) != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	ctx := cmd.Context()
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := database.NewDataSeeder(app.DB, app.DBConfig.Dialect()).ClearData(ctx); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	fmt.Println("All data cleared.")
	return nil
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Teachers.ReindexAll(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d teachers\n", n)
	return nil
}
