package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/goldbook/internal/journal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.JournalEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO journal_entries (id, entry_date, reference_number, description, source, total_debit, total_credit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.EntryDate,
		entry.ReferenceNumber,
		entry.Description,
		entry.Source,
		entry.TotalDebit,
		entry.TotalCredit,
		entry.CreatedAt,
	).Error
}

func (r *repo) InsertLines(ctx context.Context, db *gorm.DB, lines []domain.JournalEntryLine) error {
	for _, line := range lines {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO journal_entry_lines (
				id, journal_entry_id, line_no, account_id, debit_amount, credit_amount,
				description, counterparty_type, counterparty_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			line.ID,
			line.JournalEntryID,
			line.LineNo,
			line.AccountID,
			line.DebitAmount,
			line.CreditAmount,
			line.Description,
			line.CounterpartyType,
			line.CounterpartyID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	err := db.WithContext(ctx).Where("id = ?", id).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repo) FindLines(ctx context.Context, db *gorm.DB, entryIDs []snowflake.ID) ([]domain.JournalEntryLine, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}
	var lines []domain.JournalEntryLine
	err := db.WithContext(ctx).
		Where("journal_entry_id IN ?", entryIDs).
		Order("journal_entry_id asc, line_no asc").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.JournalEntry, error) {
	var entries []*domain.JournalEntry
	stmt := db.WithContext(ctx).Model(&domain.JournalEntry{})

	if filter.From != nil {
		stmt = stmt.Where("entry_date >= ?", filter.From.UTC())
	}
	if filter.Before != nil {
		stmt = stmt.Where("entry_date < ?", filter.Before.UTC())
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(entry_date < ?) OR (entry_date = ? AND id < ?)",
			filter.Cursor.EntryDate,
			filter.Cursor.EntryDate,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("entry_date desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
