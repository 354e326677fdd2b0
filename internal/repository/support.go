package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// uniqueViolationCode はPostgreSQLのunique_violationエラーコード。
const uniqueViolationCode = "23505"

// wrapIfDuplicate は一意制約違反をErrDuplicateに変換する。
// それ以外のエラーはそのままメッセージ付きでラップする。
func wrapIfDuplicate(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
