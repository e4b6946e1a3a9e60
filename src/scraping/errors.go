package scraping

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// The page lacks an element every page of this kind has.
	MissingExpectedElement ErrorKind = iota + 1
	// The element is there but the value in it is missing or malformed.
	MissingRequiredValue
)

/*
A ScrapingError means the page did not look like what the scraper expected:
the site changed, or an error page came back in place of the real one. It is
never retried, and nothing from the page should be stored.
*/
type ScrapingError struct {
	Kind     ErrorKind
	Selector string // for MissingExpectedElement
	Name     string // for MissingRequiredValue
}

func (e *ScrapingError) Error() string {
	switch e.Kind {
	case MissingExpectedElement:
		return fmt.Sprintf("missing expected element %q", e.Selector)
	case MissingRequiredValue:
		return fmt.Sprintf("missing required value %q", e.Name)
	default:
		return "scraping failed"
	}
}

func missingElement(selector string) error {
	return &ScrapingError{Kind: MissingExpectedElement, Selector: selector}
}

func missingValue(name string) error {
	return &ScrapingError{Kind: MissingRequiredValue, Name: name}
}

func IsMissingExpectedElement(err error) bool {
	var sErr *ScrapingError
	return errors.As(err, &sErr) && sErr.Kind == MissingExpectedElement
}

func IsMissingRequiredValue(err error) bool {
	var sErr *ScrapingError
	return errors.As(err, &sErr) && sErr.Kind == MissingRequiredValue
}
