package repositories

import (
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrNotFound marks the absence of a row. It is an outcome, not a failure.
var ErrNotFound = errors.New("record not found")

type IntegrityKind string

const (
	KindUnique     IntegrityKind = "unique"
	KindForeignKey IntegrityKind = "foreign_key"
	KindOther      IntegrityKind = "other"
)

// IntegrityError describes a constraint the database refused to break.
// Field is the column the constraint covers, or empty when it cannot be told.
type IntegrityError struct {
	Kind       IntegrityKind
	Field      string
	Constraint string
	Detail     string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind) + " constraint violated"
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Checked in order: email wins over username.
var conflictFields = []string{"email", "username"}

// mysqlKeyName is anchored to the end of the message: the duplicated value
// comes first and may itself contain "for key '...'".
var (
	pgKeyColumns   = regexp.MustCompile(`Key \(([^)]*)\)=`)
	mysqlKeyName   = regexp.MustCompile(`for key '([^']+)'\s*$`)
	mysqlFKColumn  = regexp.MustCompile("FOREIGN KEY \\(`([^`]+)`\\)")
	mysqlNullField = regexp.MustCompile(`Column '([^']+)'`)
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	mysqlBadNull         = 1048
)

// fieldOf returns the first known column named by any of the identifiers.
// Identifiers are constraint, index or column names, never user supplied values.
func fieldOf(identifiers ...string) string {
	for _, field := range conflictFields {
		for _, id := range identifiers {
			if strings.Contains(strings.ToLower(id), field) {
				return field
			}
		}
	}
	return ""
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// asIntegrityError inspects a driver error and reports whether it is a
// constraint violation.
func asIntegrityError(err error) (*IntegrityError, bool) {
	if err == nil {
		return nil, false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromPostgres(pgErr)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fromMySQL(myErr)
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &IntegrityError{Kind: KindUnique, Detail: err.Error(), Err: err}, true
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &IntegrityError{Kind: KindForeignKey, Detail: err.Error(), Err: err}, true
	}
	return nil, false
}

func fromPostgres(pgErr *pgconn.PgError) (*IntegrityError, bool) {
	// class 23 is integrity constraint violation
	if !strings.HasPrefix(pgErr.Code, "23") {
		return nil, false
	}
	kind := KindOther
	switch pgErr.Code {
	case pgUniqueViolation:
		kind = KindUnique
	case pgForeignKeyViolation:
		kind = KindForeignKey
	}

	detail := pgErr.Detail
	if detail == "" {
		detail = pgErr.Message
	}
	field := fieldOf(pgErr.ConstraintName, pgErr.ColumnName, submatch(pgKeyColumns, pgErr.Detail))
	if field == "" && kind == KindForeignKey {
		field = submatch(pgKeyColumns, pgErr.Detail)
	}
	return &IntegrityError{
		Kind:       kind,
		Field:      field,
		Constraint: pgErr.ConstraintName,
		Detail:     detail,
		Err:        pgErr,
	}, true
}

func fromMySQL(myErr *mysql.MySQLError) (*IntegrityError, bool) {
	ie := &IntegrityError{Detail: myErr.Message, Err: myErr}
	switch myErr.Number {
	case mysqlDuplicateEntry:
		ie.Kind = KindUnique
		ie.Constraint = submatch(mysqlKeyName, myErr.Message)
		ie.Field = fieldOf(ie.Constraint)
	case mysqlRowIsReferenced, mysqlNoReferencedRow:
		ie.Kind = KindForeignKey
		ie.Field = submatch(mysqlFKColumn, myErr.Message)
	case mysqlBadNull:
		ie.Kind = KindOther
		ie.Field = submatch(mysqlNullField, myErr.Message)
	default:
		return nil, false
	}
	return ie, true
}

// translate maps gorm and driver errors onto the package's error vocabulary.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if ie, ok := asIntegrityError(err); ok {
		return ie
	}
	return errors.Wrap(err, op)
}
