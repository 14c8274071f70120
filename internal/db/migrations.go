package db

import (
	"context"
	"fmt"
)

// Schema for the game tables. Safe to run on every startup; the seed
// insert is keyed on the type name so restarts never duplicate the
// catalog.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT UNIQUE NOT NULL,
    chat_id BIGINT NOT NULL,
    name VARCHAR(255) NOT NULL,
    is_registered BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pet_types (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) UNIQUE NOT NULL,
    description TEXT NOT NULL,
    base_stats JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pets (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    pet_type_id BIGINT NOT NULL REFERENCES pet_types(id) ON DELETE RESTRICT,
    name VARCHAR(255) NOT NULL,
    level INTEGER NOT NULL DEFAULT 1,
    experience INTEGER NOT NULL DEFAULT 0,
    happiness INTEGER NOT NULL DEFAULT 100 CHECK (happiness BETWEEN 0 AND 100),
    hunger INTEGER NOT NULL DEFAULT 100 CHECK (hunger BETWEEN 0 AND 100),
    energy INTEGER NOT NULL DEFAULT 100 CHECK (energy BETWEEN 0 AND 100),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_pets_user_id ON pets(user_id);
CREATE INDEX IF NOT EXISTS idx_pets_pet_type_id ON pets(pet_type_id);

INSERT INTO pet_types (name, description, base_stats) VALUES
    ('Cat', 'A playful and agile companion', '{"agility": 8, "strength": 4, "intellect": 6}'),
    ('Dog', 'A loyal and energetic friend', '{"agility": 6, "strength": 7, "intellect": 5}'),
    ('Bird', 'A colorful and intelligent pet', '{"agility": 7, "strength": 2, "intellect": 8}')
ON CONFLICT (name) DO NOTHING;
`

// Migrate applies the schema and seeds the starter pet catalog.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
