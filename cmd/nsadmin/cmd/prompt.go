package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

func promptCredentials(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("admin@nullscape.io").
			Value(email).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("email is required")
				}
				return nil
			}))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password))
	}
	if len(fields) == 0 {
		return nil
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

func confirm(message string) (bool, error) {
	var ok bool
	c := huh.NewConfirm().
		Title(message).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok)
	if err := huh.NewForm(huh.NewGroup(c)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return ok, nil
}
