// Package errors provides the classified error type used across blogbuilder.
//
// A ClassifiedError carries a category (config, content, planning, render,
// ...), a severity and a retry strategy, plus a small context map. Errors are
// built with a fluent builder:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "frontmatter decode failed").
//		WithContext("file", path).
//		Fatal().
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
