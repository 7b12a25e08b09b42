package db

import (
	"context"
	"database/sql"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// AudioFile is one exported dataset pair.
type AudioFile struct {
	ID                    int64     `json:"id"`
	UserID                string    `json:"user_id"`
	ChapterID             string    `json:"chapter_id"`
	UtteranceID           string    `json:"utterance_id"`
	FilePath              string    `json:"file_path"`
	FileHash              string    `json:"file_hash"`
	DurationSec           float64   `json:"duration_sec"`
	AudioMetadata         string    `json:"audio_metadata"`
	TranscriptionOriginal string    `json:"transcription_original"`
	CreatedAt             time.Time `json:"created_at"`
}

type DB struct {
	conn *sql.DB
}

// DSN builds a go-sql-driver/mysql connection string.
func DSN(host string, port int, user, password, dbname string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = dbname
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

func New(host string, port int, user, password, dbname string) (*DB, error) {
	conn, err := sql.Open("mysql", DSN(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) CreateTable(ctx context.Context) error {
	_, err := d.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audio_files (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			chapter_id VARCHAR(64) NOT NULL,
			utterance_id VARCHAR(255) NOT NULL,
			file_path VARCHAR(1024) NOT NULL,
			file_hash CHAR(32) NOT NULL,
			duration_sec DOUBLE NOT NULL DEFAULT 0,
			audio_metadata JSON NULL,
			transcription_original TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_file_path (file_path(768)),
			KEY idx_file_hash (file_hash),
			KEY idx_speaker (user_id, chapter_id)
		) CHARACTER SET utf8mb4`)
	return err
}

// GetAllFilePaths loads every stored path so a run can skip them without a
// query per file.
func (d *DB) GetAllFilePaths(ctx context.Context) (map[string]bool, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT file_path FROM audio_files")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string]bool)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths[p] = true
	}
	return paths, rows.Err()
}

func (d *DB) Insert(ctx context.Context, af *AudioFile) (int64, error) {
	var meta any
	if af.AudioMetadata != "" {
		meta = af.AudioMetadata
	}

	res, err := d.conn.ExecContext(ctx, `
		INSERT INTO audio_files
		(user_id, chapter_id, utterance_id, file_path, file_hash, duration_sec,
		 audio_metadata, transcription_original)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		af.UserID, af.ChapterID, af.UtteranceID, af.FilePath, af.FileHash, af.DurationSec,
		meta, af.TranscriptionOriginal)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM audio_files").Scan(&n)
	return n, err
}
