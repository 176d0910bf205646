package services

import (
  "strings"
)

// Constraint violations are matched by message because the service tests run
// on sqlite while production runs on postgres; gorm does not normalize either
// driver's constraint errors.

func isUniqueViolation(err error) bool {
  if err == nil {
    return false
  }
  msg := strings.ToLower(err.Error())
  return strings.Contains(msg, "duplicate key value violates unique constraint") ||
    strings.Contains(msg, "unique constraint failed") ||
    strings.Contains(msg, "sqlstate 23505")
}

func isForeignKeyViolation(err error) bool {
  if err == nil {
    return false
  }
  msg := strings.ToLower(err.Error())
  return strings.Contains(msg, "violates foreign key constraint") ||
    strings.Contains(msg, "foreign key constraint failed") ||
    strings.Contains(msg, "sqlstate 23503")
}
