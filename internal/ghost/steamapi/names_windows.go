//go:build windows

package steamapi

const LibraryName = "steam_api64.dll"
