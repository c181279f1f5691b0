// Package repository reconstructs localized domain entities from stored
// triplets and implements structured spell search.
//
// Missing translations are not errors: localized values fall back from
// the requested language to English and then to untagged values.
package repository
