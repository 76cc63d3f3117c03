package pointer

import "time"

// To returns a pointer to the provided value
func To[T any](value T) *T {
	return &value
}

// Copy returns a pointer that's a copy of the provided value
func Copy[T any](value *T) *T {
	if value == nil {
		return nil
	}
	return To(*value)
}

// IfValid returns a pointer to the value if it's valid, otherwise nil
func IfValid[T any](valid bool, value T) *T {
	if valid {
		return &value
	}
	return nil
}

// String returns a pointer to the provided string value
func String(value string) *string {
	return To(value)
}

// StringCopy returns a pointer that's a copy of the provided value
func StringCopy(value *string) *string {
	return Copy(value)
}

// StringIfValid returns a pointer to the value if it's valid, otherwise nil
func StringIfValid(valid bool, value string) *string {
	return IfValid(valid, value)
}

// StringOrEmpty dereferences the value, returning an empty string for nil
func StringOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Time returns a pointer to the provided time value
func Time(value time.Time) *time.Time {
	return To(value)
}

// TimeCopy returns a pointer that's a copy of the provided value
func TimeCopy(value *time.Time) *time.Time {
	return Copy(value)
}
