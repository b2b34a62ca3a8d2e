package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/apperror"
	"github.com/ukydev/fuel-tracker/internal/client"
	"github.com/ukydev/fuel-tracker/internal/config"
	"github.com/ukydev/fuel-tracker/internal/metrics"
	"github.com/ukydev/fuel-tracker/internal/models"
	"github.com/ukydev/fuel-tracker/internal/session"
	"golang.org/x/sync/errgroup"
)

type catalogEntry struct {
	Make, Model string
	Engine      models.EngineType
	// L/100km range the simulated driver achieves
	MinConsumption, MaxConsumption float64
}

var catalog = []catalogEntry{
	{"Toyota", "Corolla", models.EngineHybrid, 4.2, 5.5},
	{"Ford", "F-150", models.EngineGasoline, 11.5, 15.0},
	{"Volkswagen", "Golf", models.EngineDiesel, 4.8, 6.2},
	{"Honda", "Civic", models.EngineGasoline, 6.0, 7.8},
	{"BMW", "X5", models.EngineDiesel, 7.5, 9.5},
	{"Renault", "Clio", models.EngineGasoline, 5.2, 6.8},
	{"Chevrolet", "Silverado", models.EngineGasoline, 12.0, 16.0},
}

// report is the outcome for one simulated vehicle.
type report struct {
	Vehicle models.Vehicle
	Summary metrics.Summary
}

type simulator struct {
	client *client.Client
	cfg    config.SimulatorConfig
	log    log.FieldLogger
	rng    *rand.Rand
	now    func() time.Time
}

func newSimulator(c *client.Client, cfg config.SimulatorConfig, logger log.FieldLogger, seed uint64) *simulator {
	return &simulator{
		client: c,
		cfg:    cfg,
		log:    logger,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:    time.Now,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Simulation failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	store, err := openSessionStore(cfg.Session.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	manager := session.NewManager(store, logger)
	c, err := client.New(cfg.API.BaseURL, manager, client.WithLogger(logger))
	if err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"fleet_size": cfg.Simulator.FleetSize,
		"refuels":    cfg.Simulator.Refuels,
		"api_url":    cfg.API.BaseURL,
	}).Info("Starting fuel simulation")

	reports, err := newSimulator(c, cfg.Simulator, logger, uint64(time.Now().UnixNano())).Run(ctx)
	if err != nil {
		return err
	}
	logger.WithField("vehicles", len(reports)).Info("Simulation completed")
	return nil
}

// openSessionStore persists the token in SQLite, or in memory when no path
// is configured.
func openSessionStore(path string) (session.Store, error) {
	if path == "" {
		return session.NewMemoryStore(), nil
	}
	store, err := session.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Run signs in, creates the fleet, posts refuels for every vehicle in
// parallel and returns each vehicle's statistics.
func (s *simulator) Run(ctx context.Context) ([]report, error) {
	if err := s.signIn(ctx); err != nil {
		return nil, err
	}

	vehicles := make([]models.Vehicle, 0, s.cfg.FleetSize)
	for i := 0; i < s.cfg.FleetSize; i++ {
		v, err := s.client.Vehicles().Create(ctx, s.randomVehicle(i))
		if err != nil {
			return nil, fmt.Errorf("create vehicle %d: %w", i+1, err)
		}
		s.log.WithFields(log.Fields{
			"vehicle_id": v.ID,
			"vehicle":    v.DisplayName(),
		}).Info("Created vehicle")
		vehicles = append(vehicles, *v)
	}

	// rng is not safe for concurrent use, so every refuel is drawn up front.
	plans := make([][]models.FuelRecord, len(vehicles))
	for i := range vehicles {
		plans[i] = s.refuels(catalogFor(vehicles[i]), s.cfg.Refuels)
	}

	reports := make([]report, len(vehicles))
	g, gctx := errgroup.WithContext(ctx)
	for i := range vehicles {
		g.Go(func() error {
			summary, err := s.drive(gctx, vehicles[i], plans[i])
			if err != nil {
				return fmt.Errorf("vehicle %s: %w", vehicles[i].ID, err)
			}
			reports[i] = report{Vehicle: vehicles[i], Summary: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// signIn registers the simulation user, or reuses it when the phone is
// already taken, and logs in.
func (s *simulator) signIn(ctx context.Context) error {
	_, err := s.client.Auth().Register(ctx, models.RegisterRequest{
		Name:     "Fuel Simulator",
		Phone:    s.cfg.Phone,
		Password: s.cfg.Password,
	})
	var appErr *apperror.Error
	switch {
	case err == nil:
		s.log.WithField("phone", s.cfg.Phone).Info("Registered simulation user")
	case errors.As(err, &appErr) && appErr.Kind == apperror.KindAuth && appErr.Status == http.StatusConflict:
		s.log.WithField("phone", s.cfg.Phone).Debug("Simulation user already registered")
	default:
		return fmt.Errorf("register: %w", err)
	}

	if _, err := s.client.Auth().Login(ctx, s.cfg.Phone, s.cfg.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// drive posts the planned refuels in order, then reads them back.
func (s *simulator) drive(ctx context.Context, v models.Vehicle, plan []models.FuelRecord) (metrics.Summary, error) {
	for _, r := range plan {
		if _, err := s.client.FuelRecords().Create(ctx, v.ID, r); err != nil {
			return metrics.Summary{}, err
		}
	}

	records, err := s.client.FuelRecords().List(ctx, v.ID)
	if err != nil {
		return metrics.Summary{}, err
	}
	summary := metrics.Summarize(records)
	s.log.WithFields(log.Fields{
		"vehicle_id":          v.ID,
		"vehicle":             v.DisplayName(),
		"records":             summary.RecordCount,
		"total_spent":         round(summary.TotalSpent, 2),
		"total_fuel":          round(summary.TotalFuel, 2),
		"total_distance":      round(summary.TotalDistance, 1),
		"average_consumption": round(summary.AverageConsumption, 2),
		"efficiency":          round(summary.Efficiency, 1),
	}).Info("Vehicle summary")
	if summary.OdometerRegression {
		s.log.WithField("vehicle_id", v.ID).Warn("Odometer went backwards")
	}
	return summary, nil
}

func (s *simulator) randomVehicle(i int) models.Vehicle {
	entry := catalog[s.rng.IntN(len(catalog))]
	avg := round((entry.MinConsumption+entry.MaxConsumption)/2, 1)
	return models.Vehicle{
		Plate:          fmt.Sprintf("SIM-%03d-%02d", i+1, s.rng.IntN(100)),
		Make:           entry.Make,
		Model:          entry.Model,
		EngineType:     entry.Engine,
		YearOfMake:     2012 + s.rng.IntN(s.now().Year()-2012+1),
		AvgConsumption: &avg,
	}
}

// refuels plans n refills about a week apart up to today, with a strictly
// increasing odometer. Total prices are left for the client to derive.
func (s *simulator) refuels(entry catalogEntry, n int) []models.FuelRecord {
	records := make([]models.FuelRecord, 0, n)
	start := s.now().AddDate(0, 0, -7*n)
	odometer := float64(5000 + s.rng.IntN(80000))
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, 7*(i+1)-s.rng.IntN(4))
		driven := 250 + s.rng.Float64()*450
		odometer = round(odometer+driven, 0)
		consumption := round(entry.MinConsumption+s.rng.Float64()*(entry.MaxConsumption-entry.MinConsumption), 1)
		refill := round(driven*consumption/100, 2)
		remaining := round(30+s.rng.Float64()*60, 0)

		records = append(records, models.FuelRecord{
			Date:                models.DateOf(day),
			CurrentEstimateKm:   remaining,
			Odometer:            odometer,
			AvgConsumption:      consumption,
			RefillAmount:        refill,
			EstimatedDistanceKm: round(remaining+refill/consumption*100, 0),
			PricePerLiter:       round(1.45+s.rng.Float64()*0.5, 3),
		})
	}
	return records
}

func catalogFor(v models.Vehicle) catalogEntry {
	for _, e := range catalog {
		if e.Make == v.Make && e.Model == v.Model {
			return e
		}
	}
	return catalogEntry{Make: v.Make, Model: v.Model, Engine: v.EngineType, MinConsumption: 5, MaxConsumption: 9}
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
