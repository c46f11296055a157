// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines FSInfo, the link between a parsed task definition and
// the manifest file it was read from. Error messages and the `tasks`
// listing report it.
package manifest

// FSInfo stores where a definition came from.
type FSInfo struct {
	FilePath string
}

// NewFSInfo records the manifest path of a definition.
func NewFSInfo(filePath string) *FSInfo {
	return &FSInfo{
		FilePath: filePath,
	}
}
