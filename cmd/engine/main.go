package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"riskcore/internal/breaker"
	"riskcore/internal/controller"
	"riskcore/internal/exposure"
	"riskcore/internal/journal"
	"riskcore/internal/obs"
	"riskcore/internal/ops"
	"riskcore/internal/oracle"
	"riskcore/internal/position"
	"riskcore/internal/reputation"
	"riskcore/internal/reserve"
	"riskcore/internal/rights"
	"riskcore/internal/schema"
	"riskcore/internal/settle"
	"riskcore/internal/store"
	"riskcore/internal/vault"
	"riskcore/pkg/conn"
)

// simAdapter is a pass-through venue for scripted runs: it reports the
// deployed amount back as the produced size.
type simAdapter struct {
	name string
}

func (a simAdapter) Name() string { return a.name }

func (a simAdapter) Execute(action schema.Action) (schema.Amount, error) {
	return action.AmountIn, nil
}

type engine struct {
	loaded     ops.Loaded
	breaker    *breaker.Breaker
	exposure   *exposure.Ledger
	reputation *reputation.Registry
	positions  *position.Ledger
	vault      *vault.Vault
	rights     *rights.Authority
	oracle     *oracle.Static
	reserve    *reserve.Fund
	controller *controller.Controller
	admin      *controller.Admin
	settle     *settle.Coordinator
	metrics    *obs.Metrics
	journal    *journal.Writer
}

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	configReload := flag.Duration("config-reload-interval", 2*time.Second, "Config reload interval (0=disable)")
	depositAmount := flag.Int64("deposit", 1_000_000, "Initial pool deposit for scripted runs")
	rightCapital := flag.Int64("right-capital", 100_000, "Capital limit of the scripted right")
	actionCount := flag.Int("action-count", 1, "Number of actions to execute")
	actionInterval := flag.Duration("action-interval", 0, "Delay between actions")
	actionAmount := flag.Int64("action-amount", 10_000, "AmountIn per scripted action")
	pnl := flag.Int64("settle-pnl", 0, "PnL to settle the scripted right with")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disable)")
	flag.Parse()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "riskcore/engine",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	eng, err := build(loaded)
	if err != nil {
		log.Fatalf("engine build failed: %v", err)
	}
	if eng.journal != nil {
		defer func() { _ = eng.journal.Close() }()
	}

	ctx := context.Background()
	if *configPath != "" && *configReload > 0 {
		go watchConfig(ctx, *configPath, *configReload, eng)
	}

	if err := runScenario(eng, scenarioParams{
		Deposit:        schema.Amount(*depositAmount),
		RightCapital:   schema.Amount(*rightCapital),
		ActionCount:    *actionCount,
		ActionInterval: *actionInterval,
		ActionAmount:   schema.Amount(*actionAmount),
		SettlePnl:      schema.Notional(*pnl),
	}); err != nil {
		log.Fatalf("scenario failed: %v", err)
	}

	snapshot := eng.metrics.Snapshot()
	logs.Infof("metrics: actions=%v fails=%v reasons=%v validate=%+v execute=%+v",
		snapshot.ActionCounts, snapshot.ActionFails, snapshot.ReasonCounts,
		snapshot.ValidateLatency, snapshot.ExecuteLatency)
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Default(), nil
	}
	return ops.Load(path)
}

func build(loaded ops.Loaded) (*engine, error) {
	now := time.Now().UTC().Unix()
	operator := schema.Principal(loaded.Principals.Operator)
	controllerID := schema.Principal(loaded.Principals.Controller)
	issuer := schema.Principal(loaded.Principals.Issuer)
	settlement := schema.Principal(loaded.Principals.Settlement)

	brk, err := breaker.New(breaker.Config{
		MaxDailyLossBps: loaded.Breaker.MaxDailyLossBps,
		UnpauseCooldown: loaded.Breaker.UnpauseCooldownSec,
	}, now)
	if err != nil {
		return nil, err
	}

	exp, err := exposure.NewLedger(loaded.Exposure.DefaultLimitBps)
	if err != nil {
		return nil, err
	}
	for asset, limit := range loaded.Exposure.CustomLimits {
		if err := exp.SetCustomLimit(asset, schema.Notional(limit)); err != nil {
			return nil, err
		}
	}

	rep, err := reputation.NewRegistry(loaded.Tiers)
	if err != nil {
		return nil, err
	}

	fund, err := reserve.NewFund(schema.Amount(loaded.Reserve.Balance), loaded.Reserve.FeeBps)
	if err != nil {
		return nil, err
	}

	vlt, err := vault.New(vault.Config{
		Controller:            controllerID,
		Settlement:            settlement,
		Operator:              operator,
		UtilizationCeilingBps: loaded.Vault.UtilizationCeilingBps,
		Gate:                  brk,
	})
	if err != nil {
		return nil, err
	}
	for _, name := range loaded.Vault.Adapters {
		if err := vlt.RegisterAdapter(operator, simAdapter{name: name}); err != nil {
			return nil, err
		}
	}

	authority := rights.New(rights.Config{
		Issuer:     issuer,
		Settlement: settlement,
		Controller: controllerID,
	})
	positions := position.NewLedger()
	feed := oracle.NewStatic(loaded.Oracle)
	metrics := obs.NewMetrics()

	var audit *journal.Writer
	if loaded.Features.EnableJournal && loaded.Journal.Dir != "" {
		audit, err = journal.NewWriter(journal.Config{
			Dir:             loaded.Journal.Dir,
			FilePrefix:      loaded.Journal.FilePrefix,
			SegmentMaxBytes: loaded.Journal.SegmentMaxBytes,
		})
		if err != nil {
			return nil, err
		}
	}

	var persistence *store.Store
	if loaded.Features.EnablePersistence && loaded.Postgres.Host != "" {
		client, err := conn.New(conn.Option{
			Host:     loaded.Postgres.Host,
			Port:     loaded.Postgres.Port,
			User:     loaded.Postgres.User,
			Password: loaded.Postgres.Password,
			Database: loaded.Postgres.Database,
			SSLMode:  loaded.Postgres.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		persistence = store.New(client.DB())
		if err := persistence.Migrate(context.Background()); err != nil {
			return nil, err
		}
	}

	var controllerJournal controller.Journal
	var settleJournal settle.Journal
	if audit != nil {
		controllerJournal = audit
		settleJournal = audit
	}
	var actionStore controller.ActionStore
	if persistence != nil {
		actionStore = persistence
	}

	ctrl := controller.New(controller.Config{
		Self:       controllerID,
		Operator:   operator,
		Rights:     authority,
		Vault:      vlt,
		Exposure:   exp,
		Positions:  positions,
		Gate:       brk,
		Reputation: rep,
		Oracle:     feed,
		Journal:    controllerJournal,
		Store:      actionStore,
		Metrics:    metrics,
	})

	admin := controller.NewAdmin(controller.AdminConfig{
		Operator:   operator,
		Breaker:    brk,
		Exposure:   exp,
		Reputation: rep,
		Vault:      vlt,
		Reserve:    fund,
		Oracle:     feed,
	})

	var settleStore settle.Store
	if persistence != nil {
		settleStore = persistence
	}
	coordinator := settle.New(settle.Config{
		Self:      settlement,
		Authority: settlement,
		Rights:    authority,
		Vault:     vlt,
		Breaker:   brk,
		Reserve:   fund,
		Repute:    rep,
		Exposure:  exp,
		Positions: positions,
		Journal:   settleJournal,
		Store:     settleStore,
		Metrics:   metrics,
	})

	return &engine{
		loaded:     loaded,
		breaker:    brk,
		exposure:   exp,
		reputation: rep,
		positions:  positions,
		vault:      vlt,
		rights:     authority,
		oracle:     feed,
		reserve:    fund,
		controller: ctrl,
		admin:      admin,
		settle:     coordinator,
		metrics:    metrics,
		journal:    audit,
	}, nil
}

type scenarioParams struct {
	Deposit        schema.Amount
	RightCapital   schema.Amount
	ActionCount    int
	ActionInterval time.Duration
	ActionAmount   schema.Amount
	SettlePnl      schema.Notional
}

// runScenario drives one scripted allocation/execution/settlement cycle
// through the full pipeline.
func runScenario(eng *engine, sc scenarioParams) error {
	operator := schema.Principal(eng.loaded.Principals.Operator)
	issuer := schema.Principal(eng.loaded.Principals.Issuer)
	settlement := schema.Principal(eng.loaded.Principals.Settlement)
	executor := schema.Principal("executor-1")

	adapterName := "sim"
	if len(eng.loaded.Vault.Adapters) > 0 {
		adapterName = eng.loaded.Vault.Adapters[0]
	} else if err := eng.admin.RegisterAdapter(operator, simAdapter{name: adapterName}); err != nil {
		return err
	}

	if _, err := eng.vault.Deposit("lp-1", sc.Deposit); err != nil {
		return err
	}
	if err := eng.admin.UpdateBreakerSnapshot(operator); err != nil {
		return err
	}
	logs.Infof("pool funded: assets=%d utilization=%dbps", eng.vault.TotalAssets(), eng.vault.UtilizationRate())

	expiry := time.Now().UTC().Add(24 * time.Hour).Unix()
	rightID, err := eng.rights.Issue(issuer, executor, sc.RightCapital, expiry, schema.Constraints{
		MaxLeverage:        3,
		MaxDrawdownBps:     2_000,
		MaxPositionSizeBps: 5_000,
		AllowedAdapters:    map[string]bool{adapterName: true},
		AllowedAssets:      map[string]bool{"USDC": true, "WETH": true},
	})
	if err != nil {
		return err
	}
	if err := eng.rights.Activate(issuer, rightID); err != nil {
		return err
	}
	logs.Infof("right %d issued to %s, capital limit %d", rightID, executor, sc.RightCapital)

	action := schema.Action{
		Kind:     schema.ActionSwap,
		Adapter:  adapterName,
		TokenIn:  "USDC",
		TokenOut: "WETH",
		AmountIn: sc.ActionAmount,
	}
	for i := 0; i < sc.ActionCount; i++ {
		if decision := eng.controller.Validate(executor, rightID, action); !decision.OK {
			logs.Infof("action %d denied: %s", i, decision.Reason)
			break
		}
		if err := eng.controller.Execute(executor, rightID, action); err != nil {
			logs.Errorf("action %d failed, err: %+v", i, err)
			break
		}
		if sc.ActionInterval > 0 && i < sc.ActionCount-1 {
			time.Sleep(sc.ActionInterval)
		}
	}
	logs.Infof("positions open: %d, deployed capital: %d", eng.positions.Count(rightID), eng.vault.Allocation(rightID))

	result, err := eng.settle.Settle(settlement, rightID, sc.SettlePnl, schema.Notional(sc.ActionAmount)*schema.Notional(sc.ActionCount))
	if err != nil {
		return err
	}
	logs.Infof("right %d settled: pnl=%d covered=%d fee=%d", result.RightID, result.Pnl, result.Covered, result.Fee)
	return nil
}

// watchConfig polls the config file and applies updated limits in place.
func watchConfig(ctx context.Context, path string, interval time.Duration, eng *engine) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	operator := schema.Principal(eng.loaded.Principals.Operator)
	var lastMod time.Time
	for {
		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				logs.Errorf("config stat failed, err: %+v", err)
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}
			loaded, err := ops.Load(path)
			if err != nil {
				logs.Errorf("config reload failed, err: %+v", err)
				continue
			}
			applyLimits(eng, operator, loaded)
			lastMod = info.ModTime()
			logs.Infof("config reloaded: %s", path)
		}
	}
}

func applyLimits(eng *engine, operator schema.Principal, loaded ops.Loaded) {
	if err := eng.admin.SetDailyLossLimit(operator, loaded.Breaker.MaxDailyLossBps); err != nil {
		logs.Errorf("apply daily loss limit, err: %+v", err)
	}
	if err := eng.admin.SetUnpauseCooldown(operator, loaded.Breaker.UnpauseCooldownSec); err != nil {
		logs.Errorf("apply unpause cooldown, err: %+v", err)
	}
	if err := eng.admin.SetDefaultExposureLimit(operator, loaded.Exposure.DefaultLimitBps); err != nil {
		logs.Errorf("apply exposure limit, err: %+v", err)
	}
	if err := eng.admin.SetUtilizationCeiling(operator, loaded.Vault.UtilizationCeilingBps); err != nil {
		logs.Errorf("apply utilization ceiling, err: %+v", err)
	}
	if err := eng.admin.SetInsuranceFee(operator, loaded.Reserve.FeeBps); err != nil {
		logs.Errorf("apply insurance fee, err: %+v", err)
	}
}
