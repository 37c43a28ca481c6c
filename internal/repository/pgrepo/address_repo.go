package pgrepo

import (
	"context"
	"errors"

	"nutrastore-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type addressRepository struct {
	db *pgxpool.Pool
}

func NewAddressRepository(db *pgxpool.Pool) domain.AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) GetDefaultAddress(ctx context.Context, userID string) (*domain.Address, error) {
	var a domain.Address
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id::text, user_id, label, contact_email, phone, first_name, last_name,
			address_line, landmark, city, state, postal_code, country, is_default, created_at
		FROM addresses
		WHERE user_id = $1 AND is_default
		LIMIT 1`, userID,
	).Scan(&a.ID, &a.UserID, &a.Label, &a.ContactEmail, &a.Phone, &a.FirstName, &a.LastName,
		&a.AddressLine, &a.Landmark, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
