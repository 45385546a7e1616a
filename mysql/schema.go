package mysql

import (
	"fmt"

	"github.com/velmie/eventqueue/internal/sqlname"
)

// maxKeyLength matches the store_key column; 191 characters keep the
// utf8mb4 primary key within InnoDB's index prefix limit.
const maxKeyLength = 191

const schemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	store_key VARCHAR(191) NOT NULL,
	store_value LONGTEXT NOT NULL,
	updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	PRIMARY KEY (store_key)
) DEFAULT CHARSET = utf8mb4;`

// Schema returns the DDL for the key-value table.
func Schema(table string) (string, error) {
	name, err := sqlname.Table(table)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTableName, err)
	}

	return fmt.Sprintf(schemaTemplate, name), nil
}
