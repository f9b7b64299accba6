// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

package smartproxy

import "github.com/lukolszewski/metamcp-go/pkg/smartproxy/apierrors"

// These are aliases, not redeclarations: apierrors imports nothing from
// this module so that leaf packages (embedding, vectorstore) can return these error types
// without importing this package back.
type (
	ToolNotFoundError   = apierrors.ToolNotFoundError
	BatchTooLargeError  = apierrors.BatchTooLargeError
	EmbeddingAPIError   = apierrors.EmbeddingAPIError
	VectorStoreError    = apierrors.VectorStoreError
	DownstreamCallError = apierrors.DownstreamCallError
)
