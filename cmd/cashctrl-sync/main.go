package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/swisscityerp/erp_backend/cashctrl"
	"github.com/swisscityerp/erp_backend/config"
	"github.com/swisscityerp/erp_backend/models"
	"github.com/swisscityerp/erp_backend/utils"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cashctrl-sync [flags] <initialize|reconcile|update-or-create>")
	flag.PrintDefaults()
}

func main() {
	tenantId := flag.String("tenant", "", "Required: tenant id")
	key := flag.String("key", "", "Restrict update-or-create to the catalog entry with this key")
	code := flag.String("code", "", "Restrict update-or-create to entries with this code")
	name := flag.String("name", "", "Restrict update-or-create to entries with this display name")
	destructive := flag.Bool("destructive", false, "Delete remote records absent from the local catalog")
	yes := flag.Bool("yes", false, "Skip the interactive confirmation")
	flag.Usage = usage
	flag.Parse()

	if err := run(*tenantId, *key, *code, *name, *destructive, *yes); err != nil {
		if errors.Is(err, cashctrl.ErrUserCancelled) {
			fmt.Fprintln(os.Stderr, "aborted")
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(tenantId, key, code, name string, destructive, yes bool) error {
	if flag.NArg() != 1 {
		usage()
		return errors.New("exactly one action is required")
	}
	action, err := cashctrl.ParseAction(flag.Arg(0))
	if err != nil {
		return err
	}
	if strings.TrimSpace(tenantId) == "" {
		return errors.New("--tenant is required")
	}

	sel := cashctrl.Selector{Key: key, Code: code, Name: name}
	if action != cashctrl.ActionUpdateOrCreate && !sel.IsEmpty() {
		return fmt.Errorf("--key/--code/--name only apply to update-or-create")
	}

	if destructive && !yes {
		if err := confirm(fmt.Sprintf("Delete remote records missing from the catalog for tenant %s?", tenantId)); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = utils.SetTenantIdInContext(ctx, tenantId)

	// Read once at startup; fatal in production when SECRET_KEY is missing.
	config.SecretKey()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		return errors.New("database not initialized")
	}
	logger := config.GetLogger()

	setup, err := models.GetAccountingSetup(ctx, tenantId)
	if err != nil {
		return err
	}
	if setup == nil || setup.Status != models.SetupStatusConnected {
		return fmt.Errorf("tenant %s is not connected to cashctrl", tenantId)
	}

	api, err := cashctrl.NewClient(setup.OrgId, setup.AuthSecretRef)
	if err != nil {
		return err
	}

	reconciler := &cashctrl.Reconciler{
		API:         api,
		Store:       models.SyncStore{},
		Logger:      logger,
		TenantId:    tenantId,
		SetupId:     setup.ID,
		Actor:       "cli",
		Destructive: destructive,
	}

	stats, runErr := reconciler.Run(ctx, action, sel)
	for _, collection := range stats.Order {
		fmt.Printf("%-24s %s\n", collection, stats.Results[collection])
	}
	fmt.Printf("total: %d synced, %d failed\n", stats.Synced(), stats.Failed())

	if runErr != nil {
		return runErr
	}
	if stats.Failed() > 0 {
		return fmt.Errorf("%d records failed", stats.Failed())
	}
	return nil
}

func confirm(prompt string) error {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return cashctrl.ErrUserCancelled
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return cashctrl.ErrUserCancelled
	}
}
