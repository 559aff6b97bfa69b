package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"backoffice/internal/core"
)

// Seed is the YAML layout accepted by LoadSeed.
type Seed struct {
	Entities []SeedEntity `yaml:"entities"`
	Records  []SeedRecord `yaml:"records"`
}

type SeedEntity struct {
	ID        string         `yaml:"id"`
	Kind      string         `yaml:"kind"`
	Name      string         `yaml:"name"`
	Documents []SeedDocument `yaml:"documents"`
}

type SeedDocument struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	IssueDate  string `yaml:"issueDate"`
	ExpiryDate string `yaml:"expiryDate"`
	Attachment string `yaml:"attachment"`
}

type SeedRecord struct {
	ID           string            `yaml:"id"`
	Type         string            `yaml:"type"`
	Amount       string            `yaml:"amount"`
	Method       string            `yaml:"method"`
	Counterparty core.Counterparty `yaml:"counterparty"`
	ServiceFee   string            `yaml:"serviceFee"`
	Status       string            `yaml:"status"`
	CreatedAt    time.Time         `yaml:"createdAt"`
	Published    *bool             `yaml:"published"`
}

// NewFromFile builds a store seeded from the YAML file at path.
func NewFromFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	s := New()
	if err := s.LoadSeed(raw); err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}
	return s, nil
}

// LoadSeed decodes raw YAML and inserts its entities and records.
func (s *Store) LoadSeed(raw []byte) error {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	ctx := context.Background()
	for i, se := range seed.Entities {
		e, err := se.entity()
		if err != nil {
			return fmt.Errorf("entity %d: %w", i, err)
		}
		if _, err := s.CreateEntity(ctx, e); err != nil {
			return fmt.Errorf("entity %d: %w", i, err)
		}
	}
	for i, sr := range seed.Records {
		rec, err := sr.record()
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		stored, err := s.CreateRecord(ctx, rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if sr.Published != nil && !*sr.Published {
			if err := s.UnpublishRecord(ctx, stored.ID); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
	}
	return nil
}

func (se SeedEntity) entity() (core.Entity, error) {
	kind, err := core.ParseEntityKind(se.Kind)
	if err != nil {
		return core.Entity{}, err
	}
	e := core.Entity{ID: se.ID, Kind: kind, Name: se.Name}
	if err := e.Validate(); err != nil {
		return core.Entity{}, err
	}
	for _, sd := range se.Documents {
		issue, err := core.ParseDate(sd.IssueDate)
		if err != nil {
			return core.Entity{}, err
		}
		expiry, err := core.ParseDate(sd.ExpiryDate)
		if err != nil {
			return core.Entity{}, err
		}
		d := core.Document{
			ID:         sd.ID,
			Name:       sd.Name,
			IssueDate:  issue,
			ExpiryDate: expiry,
			Attachment: sd.Attachment,
		}
		if err := d.Validate(); err != nil {
			return core.Entity{}, err
		}
		e.Documents = append(e.Documents, d)
	}
	return e, nil
}

func (sr SeedRecord) record() (core.LedgerRecord, error) {
	typ, err := core.ParseRecordType(sr.Type)
	if err != nil {
		return core.LedgerRecord{}, err
	}
	method, err := core.ParseMethod(sr.Method)
	if err != nil {
		return core.LedgerRecord{}, err
	}
	amount, err := core.ParseMoney(sr.Amount)
	if err != nil {
		return core.LedgerRecord{}, err
	}
	var fee core.Money
	if sr.ServiceFee != "" {
		if fee, err = core.ParseMoney(sr.ServiceFee); err != nil {
			return core.LedgerRecord{}, err
		}
	}
	return core.LedgerRecord{
		ID:           sr.ID,
		Type:         typ,
		Amount:       amount,
		Method:       method,
		Counterparty: sr.Counterparty,
		ServiceFee:   fee,
		Status:       sr.Status,
		CreatedAt:    sr.CreatedAt,
	}, nil
}
