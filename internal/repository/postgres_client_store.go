package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"RateWatch/internal/domain/models"
	applogger "RateWatch/pkg/logger"
)

// PGClientStore reads broker portfolios. Clients and mortgages are
// written by the external CRUD collaborator; this store only reads.
type PGClientStore struct {
	pool *pgxpool.Pool
	l    *applogger.Logger
}

func NewPGClientStore(pool *pgxpool.Pool) *PGClientStore {
	return &PGClientStore{pool: pool}
}

// SetLogger injects a structured logger.
func (s *PGClientStore) SetLogger(l *applogger.Logger) { s.l = l }

const clientColumns = `
        c.id::text, c.first_name, c.last_name, c.broker_id::text,
        m.id::text, m.client_id::text, m.current_rate, m.target_rate,
        m.loan_amount, m.term_years, m.lender, m.notes
`

// ClientsByBroker returns every client of a broker with their mortgages
// attached, first mortgage first.
func (s *PGClientStore) ClientsByBroker(ctx context.Context, brokerID string) ([]models.Client, error) {
	const q = `
        SELECT ` + clientColumns + `
        FROM clients c
        LEFT JOIN mortgages m ON m.client_id = c.id
        WHERE c.broker_id = $1
        ORDER BY c.id, m.id
    `
	rows, err := s.pool.Query(ctx, q, brokerID)
	if err != nil {
		if s.l != nil {
			s.l.Error("clients query error",
				applogger.String("broker_id", brokerID),
				applogger.Error(err),
			)
		}
		return nil, models.NewStoreError("clients_by_broker", err)
	}
	defer rows.Close()

	var (
		out  []models.Client
		idx  = make(map[string]int)
		scan clientRow
	)
	for rows.Next() {
		client, mortgage, err := scan.read(rows.Scan)
		if err != nil {
			return nil, models.NewStoreError("clients_by_broker", err)
		}
		i, seen := idx[client.ID]
		if !seen {
			out = append(out, client)
			i = len(out) - 1
			idx[client.ID] = i
		}
		if mortgage != nil {
			out[i].Mortgages = append(out[i].Mortgages, *mortgage)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("clients_by_broker", err)
	}
	return out, nil
}

// ClientByID returns one client scoped to a broker. An unknown client,
// or one owned by another broker, yields ErrClientNotFound.
func (s *PGClientStore) ClientByID(ctx context.Context, brokerID, clientID string) (*models.Client, error) {
	const q = `
        SELECT ` + clientColumns + `
        FROM clients c
        LEFT JOIN mortgages m ON m.client_id = c.id
        WHERE c.broker_id = $1 AND c.id = $2
        ORDER BY m.id
    `
	rows, err := s.pool.Query(ctx, q, brokerID, clientID)
	if err != nil {
		if s.l != nil {
			s.l.Error("client query error",
				applogger.String("client_id", clientID),
				applogger.Error(err),
			)
		}
		return nil, models.NewStoreError("client_by_id", err)
	}
	defer rows.Close()

	var (
		client *models.Client
		scan   clientRow
	)
	for rows.Next() {
		c, mortgage, err := scan.read(rows.Scan)
		if err != nil {
			return nil, models.NewStoreError("client_by_id", err)
		}
		if client == nil {
			client = &c
		}
		if mortgage != nil {
			client.Mortgages = append(client.Mortgages, *mortgage)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewStoreError("client_by_id", err)
	}
	if client == nil {
		return nil, models.ErrClientNotFound
	}
	return client, nil
}

// clientRow scans one LEFT JOIN row; mortgage columns may be NULL.
type clientRow struct{}

func (clientRow) read(scan func(dest ...any) error) (models.Client, *models.Mortgage, error) {
	var (
		c    models.Client
		mID, mClientID, mLender, mNotes *string
		mCurrent, mTarget, mAmount      *float64
		mTerm                           *int
	)
	if err := scan(
		&c.ID, &c.FirstName, &c.LastName, &c.BrokerID,
		&mID, &mClientID, &mCurrent, &mTarget, &mAmount, &mTerm, &mLender, &mNotes,
	); err != nil {
		return c, nil, err
	}
	if mID == nil {
		return c, nil, nil
	}
	m := models.Mortgage{
		ID:          *mID,
		ClientID:    deref(mClientID),
		CurrentRate: derefF(mCurrent),
		TargetRate:  derefF(mTarget),
		LoanAmount:  derefF(mAmount),
		Lender:      deref(mLender),
		Notes:       deref(mNotes),
	}
	if mTerm != nil {
		m.TermYears = *mTerm
	}
	return c, &m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
