package db

import "fmt"

// Migration is one versioned, reversible schema change.
type Migration struct {
	Version int64
	Name    string
	Up      func(d Dialect) []string
	Down    func(d Dialect) []string
}

// Migrations lists every schema change in version order.
var Migrations = []Migration{
	{
		Version: 20120220183012,
		Name:    "create_posts",
		Up: func(d Dialect) []string {
			return []string{fmt.Sprintf(`
CREATE TABLE posts (
    id %s,
    author VARCHAR(255),
    body TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`, d.PrimaryKey())}
		},
		Down: func(Dialect) []string {
			return []string{`DROP TABLE posts`}
		},
	},
	{
		Version: 20120220183547,
		Name:    "create_responses",
		Up: func(d Dialect) []string {
			return []string{fmt.Sprintf(`
CREATE TABLE responses (
    id %s,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`, d.PrimaryKey())}
		},
		Down: func(Dialect) []string {
			return []string{`DROP TABLE responses`}
		},
	},
	{
		// Nullable, no defaults.
		Version: 20120221032404,
		Name:    "add_fields_to_response",
		Up: func(Dialect) []string {
			return []string{
				`ALTER TABLE responses ADD COLUMN body TEXT`,
				`ALTER TABLE responses ADD COLUMN author VARCHAR(255)`,
				`ALTER TABLE responses ADD COLUMN post_id INTEGER`,
			}
		},
		Down: func(Dialect) []string {
			return []string{
				`ALTER TABLE responses DROP COLUMN post_id`,
				`ALTER TABLE responses DROP COLUMN author`,
				`ALTER TABLE responses DROP COLUMN body`,
			}
		},
	},
	{
		Version: 20120301120000,
		Name:    "create_moderators",
		Up: func(d Dialect) []string {
			return []string{fmt.Sprintf(`
CREATE TABLE moderators (
    id %s,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL
)`, d.PrimaryKey())}
		},
		Down: func(Dialect) []string {
			return []string{`DROP TABLE moderators`}
		},
	},
	{
		Version: 20120301120500,
		Name:    "index_responses_on_post_id",
		Up: func(Dialect) []string {
			return []string{`CREATE INDEX index_responses_on_post_id ON responses (post_id)`}
		},
		Down: func(Dialect) []string {
			return []string{`DROP INDEX index_responses_on_post_id`}
		},
	},
}
