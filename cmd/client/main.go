package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/illegalcall/fitplan/internal/app"
	"github.com/illegalcall/fitplan/internal/config"
	"github.com/illegalcall/fitplan/internal/models"
	"github.com/illegalcall/fitplan/internal/onboarding"
)

const usage = `usage: client <command> [flags]

commands:
  status                         show the session and where it lands
  register -email -password      create an account and log in
  login -email -password         log in
  logout                         clear the session
  onboard [-mode] [-name] ...    answer the questionnaire and build a plan
  plan [-regenerate]             print the weekly plan
  chat <message>                 talk to the nutrition assistant
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration
	cfg := config.LoadConfig()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, app.Deps{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	err = run(ctx, a, os.Args[1], os.Args[2:])
	if closeErr := a.Close(); closeErr != nil {
		slog.Error("Failed to close application", "error", closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "status":
		return status(a)
	case "register":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		country := fs.String("country", "", "country")
		region := fs.String("region", "", "region")
		fs.Parse(args)
		if err := a.Session.Register(ctx, *email, *password, *country, *region); err != nil {
			return err
		}
		return status(a)
	case "login":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		fs.Parse(args)
		if err := a.Session.Login(ctx, *email, *password); err != nil {
			return err
		}
		return status(a)
	case "logout":
		return a.Logout(ctx)
	case "onboard":
		return onboard(ctx, a, args)
	case "plan":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		regenerate := fs.Bool("regenerate", false, "ask for a new plan first")
		fs.Parse(args)
		if *regenerate {
			if err := a.Planner.Regenerate(ctx); err != nil {
				return err
			}
		} else if err := a.Planner.Load(ctx); err != nil {
			return err
		}
		printPlan(a.Planner.Plan())
		return nil
	case "chat":
		msg, err := a.Chat.Send(ctx, strings.Join(args, " "))
		if msg.Text != "" {
			fmt.Println(msg.Text)
		}
		return err
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func status(a *app.App) error {
	snap := a.Session.Snapshot()
	route, view := a.Resolve()
	fmt.Printf("state: %s\nuser: %s\nroute: %s (%s)\n", snap.State(), snap.UserID, route, view)
	if snap.Profile != nil {
		fmt.Printf("name: %s\nonboarding complete: %t\n", snap.Profile.Name, snap.Profile.IsOnboardingComplete)
	}
	return nil
}

func onboard(ctx context.Context, a *app.App, args []string) error {
	defaults := onboarding.DefaultDraft()
	fs := flag.NewFlagSet("onboard", flag.ExitOnError)
	mode := fs.String("mode", string(models.PlanningAutomatic), "planning mode: automatic or custom")
	name := fs.String("name", "", "display name")
	weight := fs.Float64("weight", defaults.Weight, "weight in kg")
	target := fs.Float64("target", defaults.TargetWeight, "target weight in kg")
	height := fs.Float64("height", defaults.Height, "height in cm")
	diet := fs.String("diet", string(defaults.DietType), "diet type")
	fs.Parse(args)

	w := a.NewOnboarding()
	if err := w.ChoosePlanningMode(models.PlanningMode(*mode)); err != nil {
		return err
	}
	w.SetDietType(models.DietType(*diet))
	w.SetStats(onboarding.Stats{
		Name:            *name,
		Weight:          *weight,
		TargetWeight:    *target,
		Height:          *height,
		WeightLossSpeed: defaults.WeightLossSpeed,
	})
	for !w.IsTerminal() {
		if err := w.Next(); err != nil {
			return err
		}
	}
	if !w.CanFinish() {
		return errors.New("select at least one meal slot")
	}

	handle, err := w.Finish(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Building your plan...")
	if err := handle.Wait(ctx); err != nil {
		return err
	}
	printPlan(a.Planner.Plan())
	return nil
}

func printPlan(plan []models.DayPlan) {
	if len(plan) == 0 {
		fmt.Println("No plan yet.")
		return
	}
	for _, day := range plan {
		fmt.Printf("%s  %d / %d kcal\n", day.Day, day.TotalCalories, day.TargetCalories)
		for _, m := range day.Meals {
			fmt.Printf("  %-10s %-36s %4d kcal  P%d C%d F%d\n", m.Category, m.Name, m.Calories, m.Protein, m.Carbs, m.Fats)
		}
	}
}
