package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"telepets-bot/internal/models"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Sentinel errors returned by the gateway. Callers are expected to
// branch with errors.Is; anything else is a transient storage error.
var (
	ErrNotFound      = errors.New("db: not found")
	ErrAlreadyExists = errors.New("db: already exists")
	ErrPetExists     = errors.New("db: user already has a pet")
)

const uniqueViolationCode = "23505"

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(cfg struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}) (*PostgresDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	// Set connection pool parameters
	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	// Connect with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection works
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func (db *PostgresDB) FindUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `
        SELECT id, telegram_id, chat_id, name, is_registered, created_at, updated_at
        FROM users
        WHERE telegram_id = $1
    `

	var user models.User
	err := db.pool.QueryRow(ctx, query, telegramID).Scan(
		&user.ID, &user.TelegramID, &user.ChatID, &user.Name,
		&user.IsRegistered, &user.CreatedAt, &user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by telegram ID: %w", err)
	}

	return &user, nil
}

// InsertUser creates a new user row and fills in the generated fields.
// A concurrent insert for the same telegram identity surfaces as
// ErrAlreadyExists, so the caller can re-read the winning row.
func (db *PostgresDB) InsertUser(ctx context.Context, user *models.User) error {
	query := `
        INSERT INTO users (telegram_id, chat_id, name, is_registered)
        VALUES ($1, $2, $3, FALSE)
        RETURNING id, is_registered, created_at, updated_at
    `

	err := db.pool.QueryRow(ctx, query,
		user.TelegramID, user.ChatID, user.Name,
	).Scan(&user.ID, &user.IsRegistered, &user.CreatedAt, &user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (db *PostgresDB) SetUserRegistered(ctx context.Context, userID int64) error {
	query := `
        UPDATE users
        SET is_registered = TRUE, updated_at = NOW()
        WHERE id = $1
    `

	tag, err := db.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user registered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (db *PostgresDB) ListPetTypes(ctx context.Context) ([]models.PetType, error) {
	query := `
        SELECT id, name, description, base_stats, created_at, updated_at
        FROM pet_types
        ORDER BY id
    `

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pet types: %w", err)
	}
	defer rows.Close()

	var types []models.PetType
	for rows.Next() {
		petType, err := scanPetType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *petType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pet types: %w", err)
	}

	return types, nil
}

func (db *PostgresDB) FindPetTypeByID(ctx context.Context, id int64) (*models.PetType, error) {
	query := `
        SELECT id, name, description, base_stats, created_at, updated_at
        FROM pet_types
        WHERE id = $1
    `

	petType, err := scanPetType(db.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	return petType, nil
}

func (db *PostgresDB) FindPetByUser(ctx context.Context, userID int64) (*models.Pet, error) {
	query := `
        SELECT id, user_id, pet_type_id, name, level, experience, happiness, hunger, energy, created_at, updated_at
        FROM pets
        WHERE user_id = $1
    `

	var pet models.Pet
	err := db.pool.QueryRow(ctx, query, userID).Scan(
		&pet.ID, &pet.UserID, &pet.PetTypeID, &pet.Name,
		&pet.Level, &pet.Experience, &pet.Happiness, &pet.Hunger, &pet.Energy,
		&pet.CreatedAt, &pet.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pet by user: %w", err)
	}

	return &pet, nil
}

// InsertPet creates the user's pet with default level and vitals.
// The existence re-check runs in the same statement as the insert, so
// a duplicate delivery of the naming input can never create a second
// pet; the suppressed insert is reported as ErrPetExists. A unique
// violation on pets(user_id) means another process won the same race
// between the re-check and the insert, and is reported the same way.
func (db *PostgresDB) InsertPet(ctx context.Context, pet *models.Pet) error {
	query := `
        INSERT INTO pets (user_id, pet_type_id, name)
        SELECT $1, $2, $3
        WHERE NOT EXISTS (SELECT 1 FROM pets WHERE user_id = $1)
        RETURNING id, level, experience, happiness, hunger, energy, created_at, updated_at
    `

	err := db.pool.QueryRow(ctx, query,
		pet.UserID, pet.PetTypeID, pet.Name,
	).Scan(
		&pet.ID, &pet.Level, &pet.Experience,
		&pet.Happiness, &pet.Hunger, &pet.Energy,
		&pet.CreatedAt, &pet.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPetExists
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrPetExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert pet: %w", err)
	}

	return nil
}

// FindPetWithTypeByUser loads the user's pet together with its catalog
// entry, for status display.
func (db *PostgresDB) FindPetWithTypeByUser(ctx context.Context, userID int64) (*models.Pet, *models.PetType, error) {
	query := `
        SELECT p.id, p.user_id, p.pet_type_id, p.name, p.level, p.experience,
               p.happiness, p.hunger, p.energy, p.created_at, p.updated_at,
               t.id, t.name, t.description, t.base_stats, t.created_at, t.updated_at
        FROM pets p
        JOIN pet_types t ON t.id = p.pet_type_id
        WHERE p.user_id = $1
    `

	var pet models.Pet
	var petType models.PetType
	var rawStats []byte
	err := db.pool.QueryRow(ctx, query, userID).Scan(
		&pet.ID, &pet.UserID, &pet.PetTypeID, &pet.Name,
		&pet.Level, &pet.Experience, &pet.Happiness, &pet.Hunger, &pet.Energy,
		&pet.CreatedAt, &pet.UpdatedAt,
		&petType.ID, &petType.Name, &petType.Description, &rawStats,
		&petType.CreatedAt, &petType.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find pet with type: %w", err)
	}

	if err := json.Unmarshal(rawStats, &petType.BaseStats); err != nil {
		return nil, nil, fmt.Errorf("failed to decode base stats: %w", err)
	}

	return &pet, &petType, nil
}

func scanPetType(row pgx.Row) (*models.PetType, error) {
	var petType models.PetType
	var rawStats []byte
	err := row.Scan(
		&petType.ID, &petType.Name, &petType.Description, &rawStats,
		&petType.CreatedAt, &petType.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pet type: %w", err)
	}

	if err := json.Unmarshal(rawStats, &petType.BaseStats); err != nil {
		return nil, fmt.Errorf("failed to decode base stats: %w", err)
	}

	return &petType, nil
}
