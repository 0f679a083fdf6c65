package extractor

import "errors"

var (
	// ErrInvalidURL is returned when the page URL is not an absolute http(s) URL
	ErrInvalidURL = errors.New("extractor: invalid page url")
	// ErrNoSnapshot is returned by the replay driver for an unknown page
	ErrNoSnapshot = errors.New("extractor: no snapshot for page")
	// ErrInvalidSelector is returned when a static HTML snapshot meets a selector it cannot compile
	ErrInvalidSelector = errors.New("extractor: invalid selector")
)
