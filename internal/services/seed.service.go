package services

import (
	"context"
	"os"
	"strings"
	"time"

	"washplan/internal/models"
	"washplan/internal/repositories"
	"washplan/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// seedNamespace derives stable ids from seed names so re-seeding updates rows in place.
var seedNamespace = uuid.MustParse("5d7c3a9e-7a51-4b0c-9f44-2a1f0c6e8b13")

type SeedFile struct {
	Rules     []SeedRule     `yaml:"rules"`
	Workers   []SeedWorker   `yaml:"workers"`
	Customers []SeedCustomer `yaml:"customers"`
}

type SeedRule struct {
	Name             string                  `yaml:"name"`
	SingleCarPattern []models.WashType       `yaml:"singleCarPattern"`
	MultiCar         models.MultiCarSettings `yaml:"multiCar"`
	BiWeekly         models.BiWeeklySettings `yaml:"biWeekly"`
}

type SeedWorker struct {
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"`
}

type SeedCustomer struct {
	Name          string     `yaml:"name"`
	Rule          string     `yaml:"rule"`
	Active        *bool      `yaml:"active"`
	ContractStart string     `yaml:"contractStart"`
	Cars          []string   `yaml:"cars"`
	Slots         []SeedSlot `yaml:"slots"`
}

type SeedSlot struct {
	Visit int    `yaml:"visit"`
	Day   string `yaml:"day"`
	Time  string `yaml:"time"`
	Car   string `yaml:"car"`
}

type SeedResult struct {
	Rules     int
	Workers   int
	Customers int
}

type TransactionRunner interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

type SeedService struct {
	store repositories.ScheduleStore
	tx    TransactionRunner
	log   logger.Logger
}

func NewSeedService(store repositories.ScheduleStore, tx TransactionRunner) *SeedService {
	return &SeedService{
		store: store,
		tx:    tx,
		log:   logger.New("SeedService"),
	}
}

func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Validation("read seed file %s: %v", path, err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, types.Validation("parse seed: %v", err)
	}
	return &seed, nil
}

// Apply upserts every rule, worker and customer of seed in one transaction.
func (s *SeedService) Apply(ctx context.Context, seed *SeedFile) (SeedResult, error) {
	log := s.log.Function("Apply")

	rules, workers, customers, err := seed.build()
	if err != nil {
		return SeedResult{}, err
	}

	err = s.tx.Execute(ctx, func(ctx context.Context, _ *gorm.DB) error {
		for _, rule := range rules {
			if err := s.store.SaveRule(ctx, rule); err != nil {
				return err
			}
		}
		for _, worker := range workers {
			if err := s.store.SaveWorker(ctx, worker); err != nil {
				return err
			}
		}
		for _, customer := range customers {
			if err := s.store.SaveCustomer(ctx, customer); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, log.Err("failed to apply seed", err)
	}

	result := SeedResult{Rules: len(rules), Workers: len(workers), Customers: len(customers)}
	log.Info("Seed applied", "rules", result.Rules, "workers", result.Workers, "customers", result.Customers)
	return result, nil
}

func seedID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.ToLower(strings.TrimSpace(name))))
}

func (f *SeedFile) build() ([]*models.WashRule, []*models.Worker, []*models.Customer, error) {
	ruleIDs := make(map[string]uuid.UUID, len(f.Rules))
	rules := make([]*models.WashRule, 0, len(f.Rules))
	for _, seeded := range f.Rules {
		rule := &models.WashRule{
			Name:             strings.TrimSpace(seeded.Name),
			SingleCarPattern: seeded.SingleCarPattern,
			MultiCar:         seeded.MultiCar,
			BiWeekly:         seeded.BiWeekly,
		}
		if rule.Name == "" {
			return nil, nil, nil, types.Validation("seed rule without a name")
		}
		if err := rule.Validate(); err != nil {
			return nil, nil, nil, err
		}
		rule.ID = seedID("rule", rule.Name)
		ruleIDs[strings.ToLower(rule.Name)] = rule.ID
		rules = append(rules, rule)
	}

	workers := make([]*models.Worker, 0, len(f.Workers))
	for i, seeded := range f.Workers {
		if strings.TrimSpace(seeded.Name) == "" {
			return nil, nil, nil, types.Validation("seed worker %d without a name", i)
		}
		worker := &models.Worker{
			Name:     strings.TrimSpace(seeded.Name),
			Active:   seeded.Active == nil || *seeded.Active,
			Position: i,
		}
		worker.ID = seedID("worker", worker.Name)
		workers = append(workers, worker)
	}

	customers := make([]*models.Customer, 0, len(f.Customers))
	for _, seeded := range f.Customers {
		ruleID, ok := ruleIDs[strings.ToLower(strings.TrimSpace(seeded.Rule))]
		if !ok {
			return nil, nil, nil, types.Validation("seed customer %q references unknown rule %q", seeded.Name, seeded.Rule)
		}
		customer := &models.Customer{
			Name:   strings.TrimSpace(seeded.Name),
			RuleID: ruleID,
			Active: seeded.Active == nil || *seeded.Active,
		}
		if seeded.ContractStart != "" {
			start, err := time.Parse(time.DateOnly, seeded.ContractStart)
			if err != nil {
				return nil, nil, nil, types.Validation("seed customer %q contractStart: %v", seeded.Name, err)
			}
			date := datatypes.Date(start)
			customer.ContractStart = &date
		}
		for i, plate := range seeded.Cars {
			customer.Cars = append(customer.Cars, models.Car{Plate: strings.TrimSpace(plate), Position: i})
		}
		for _, slot := range seeded.Slots {
			customer.Slots = append(customer.Slots, models.VisitSlot{
				VisitIndex: slot.Visit,
				Day:        slot.Day,
				Time:       slot.Time,
				CarPlate:   strings.TrimSpace(slot.Car),
			})
		}
		customer.ID = seedID("customer", customer.Name)
		customers = append(customers, customer)
	}

	return rules, workers, customers, nil
}
