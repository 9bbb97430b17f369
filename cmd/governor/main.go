package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/bitdao/governor/internal/config"
	"github.com/bitdao/governor/internal/services/db"
	"github.com/bitdao/governor/internal/services/engine"
	"github.com/bitdao/governor/internal/services/executor"
	"github.com/bitdao/governor/internal/services/registry"
	"github.com/bitdao/governor/internal/services/vault"
	"github.com/bitdao/governor/internal/services/verifiers"
	"github.com/bitdao/governor/internal/services/webhook"
	"github.com/bitdao/governor/pkg/dao"
	"github.com/bitdao/governor/pkg/queue"
	"github.com/bitdao/governor/pkg/router"
	"github.com/ethereum/go-ethereum/common"
	"github.com/getsentry/sentry-go"
)

func main() {
	log.Default().Println("launching governor...")

	env := flag.String("env", "", "path to .env file")

	port := flag.Int("port", 3000, "port to listen on")

	dbpath := flag.String("dbpath", ".", "path to db")

	flag.Parse()

	ctx := context.Background()

	conf, err := config.New(ctx, *env)
	if err != nil {
		log.Fatal(err)
	}

	if conf.SentryURL != "" && conf.SentryURL != "x" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn: conf.SentryURL,
			// Set TracesSampleRate to 1.0 to capture 100%
			// of transactions for performance monitoring.
			// We recommend adjusting this value in production,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			log.Fatalf("sentry.Init: %s", err)
		}
		// Flush buffered events before the program terminates.
		defer sentry.Flush(2 * time.Second)
	}

	engineAddr := common.HexToAddress(conf.EngineAddress)
	daoAddr := common.HexToAddress(conf.DAOAddress)
	vaultAddr := common.HexToAddress(conf.VaultAddress)
	adminAddr := common.HexToAddress(conf.AdminAddress)

	log.Default().Println("starting internal db service...")

	suffix := strings.ToLower(engineAddr.Hex()[2:])

	var d *db.DB
	if conf.DBHost != "" {
		d, err = db.NewPostgresDB(conf.DBUser, conf.DBPassword, conf.DBName, conf.DBHost, suffix)
	} else {
		d, err = db.NewDB(*dbpath, suffix)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	wm := webhook.NewMessager(conf.WebhookURL, conf.InstanceName, conf.WebhookURL != "")

	quitAck := make(chan error)

	log.Default().Println("starting notification queue...")

	q := queue.NewService(3, 128, wm)

	go func() {
		quitAck <- q.Start(wm)
	}()

	log.Default().Println("restoring permission registry...")

	reg := registry.New(d, q)

	entries, err := d.PermissionDB.GetPermissions()
	if err != nil {
		log.Fatal(err)
	}

	for _, entry := range entries {
		reg.Restore(entry.Resource, entry.Actor, entry.Kind, entry.Granted)
	}

	// the dao administers itself by default, hand it to the configured admin
	err = reg.Delegate(daoAddr, daoAddr, adminAddr)
	if err != nil {
		log.Fatal(err)
	}

	if len(entries) == 0 {
		// fresh journal, let the engine execute on behalf of the dao
		err = reg.Grant(adminAddr, daoAddr, engineAddr, dao.ExecutePermissionID)
		if err != nil {
			log.Fatal(err)
		}
	}

	v := vault.New(vaultAddr, daoAddr)

	ex := executor.New(reg)
	ex.Register(vaultAddr, v)

	pv, err := verifiers.NewGrothProofVerifier(1024)
	if err != nil {
		log.Fatal(err)
	}

	eng := engine.New(engine.Config{
		Address:  engineAddr,
		Resource: daoAddr,
		Quorum:   conf.Quorum,
	}, verifiers.NewMLDSAVerifier(), pv, ex, d, q)

	log.Default().Println("restoring proposals...")

	props, err := d.ProposalDB.GetProposals()
	if err != nil {
		log.Fatal(err)
	}

	for _, p := range props {
		voters, err := d.VoteDB.GetVoters(p.ID)
		if err != nil {
			log.Fatal(err)
		}

		nullifiers, err := d.VoteDB.GetNullifiers(p.ID)
		if err != nil {
			log.Fatal(err)
		}

		eng.RestoreProposal(p, voters, nullifiers)
	}

	log.Default().Printf("restored %d proposals\n", len(props))

	log.Default().Println("starting api service...")

	api := router.NewServer(conf.APIKey, adminAddr, eng, reg, v)

	go func() {
		quitAck <- api.Start(*port)
	}()

	log.Default().Println("listening on port: ", *port)

	for err := range quitAck {
		if err != nil {
			log.Fatal(err)
		}
	}
}
