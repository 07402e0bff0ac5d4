package validation

import (
	"fmt"
	"regexp"
)

// IDPattern определяет допустимый формат идентификаторов (event, entity, store, device)
// Латинские буквы, цифры, '-', '_', '.', ':'; начинается с буквы или цифры
// Длина: 1-128 символов
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.:-]{0,127}$`)

// EventTypePattern определяет формат имени доменного события: PascalCase, например ProductCreated
var EventTypePattern = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]{2,63}$`)

// EntityTypePattern определяет формат типа сущности: snake_case, например product
var EntityTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)

const (
	// MaxIDLen максимальная длина идентификатора
	MaxIDLen = 128
)

// ValidateID проверяет, что идентификатор соответствует требованиям
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	if len(id) > MaxIDLen {
		return fmt.Errorf("id must not exceed %d characters", MaxIDLen)
	}

	if !IDPattern.MatchString(id) {
		return fmt.Errorf("id can only contain letters, numbers, '-', '_', '.' and ':'")
	}

	return nil
}

// ValidateEventType проверяет имя доменного события
func ValidateEventType(eventType string) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}

	if !EventTypePattern.MatchString(eventType) {
		return fmt.Errorf("event type %q must be PascalCase (3-64 characters)", eventType)
	}

	return nil
}

// ValidateEntityRef проверяет ссылку на сущность: оба поля заданы и корректны
func ValidateEntityRef(entityType, entityID string) error {
	if entityType == "" || entityID == "" {
		return fmt.Errorf("entity type and entity id must be set together")
	}

	if !EntityTypePattern.MatchString(entityType) {
		return fmt.Errorf("entity type %q must be snake_case (2-32 characters)", entityType)
	}

	if err := ValidateID(entityID); err != nil {
		return fmt.Errorf("invalid entity id: %w", err)
	}

	return nil
}
