// Package translatortest provides an in-memory translator.Client fake for
// unit tests.
package translatortest

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-cms-translate/internal/translator"
)

// Fake upper-cases text to simulate translation deterministically, unless
// FailAll is set, in which case every TranslateText call errors.
type Fake struct {
	FailAll bool
	Calls   int
}

func (f *Fake) TranslateText(_ context.Context, text, _, _ string, _ translator.Options) (string, error) {
	f.Calls++
	if f.FailAll {
		return "", errors.New("translatortest: forced failure")
	}
	return strings.ToUpper(text), nil
}

func (f *Fake) GetUsage(context.Context) (translator.Usage, error) {
	return translator.Usage{CharacterCount: 0, CharacterLimit: 500000}, nil
}

func (f *Fake) GetSourceLanguages(context.Context) ([]string, error) {
	return []string{"DE", "IT", "EN"}, nil
}

func (f *Fake) GetTargetLanguages(context.Context) ([]string, error) {
	return []string{"DE", "IT", "EN-GB"}, nil
}
