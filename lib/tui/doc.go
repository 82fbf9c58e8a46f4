// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the terminal widgets shared by DevTrack's
// interactive views: the color theme, dropdown menus, centered modals
// for multi-line text, overlay splicing, scrollbars, fuzzy matching,
// and the glow animation for recently changed cards.
//
// Widgets are plain values owned by a bubbletea model. They render to
// strings (or line slices for overlays) and never start commands of
// their own; the owning model routes keys to them and decides what
// happens on submit.
package tui
