// Package config loads settings for the groupchat command-line client.
package config
