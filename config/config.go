/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration for the rate limiting building blocks from files, readers
// and environment variables. Each configuration section implements the Config interface
// and reads its values from a DataProvider, which is usually backed by viper (see ViperAdapter).
package config

import "fmt"

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	// SetProviderDefaults registers default values in the data provider before values are read.
	SetProviderDefaults(dp DataProvider)

	// Set reads and validates values from the data provider.
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// DataType is a type of data format in which configuration may be described.
type DataType string

// Supported data formats.
const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// WrapKeyErr wraps error adding information about a key where this error occurs.
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}

// WrapKeyErrIfNeeded is the same as WrapKeyErr but returns nil for nil error.
func WrapKeyErrIfNeeded(key string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKeyErr(key, err)
}
