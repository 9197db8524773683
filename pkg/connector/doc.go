// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package connector connects the onboarding bot to a Mattermost server.
//
// # Core Types
//
// [Connector] owns the bot account's session. It verifies the token with
// GetMe, listens on the WebSocket for user_added events and serves the
// webhook endpoints Mattermost calls for slash commands and dialog
// submissions.
//
// [Feed] is the single worker that processes inbound events one at a time,
// routing membership events to the welcomer and everything else to the
// activity dispatcher.
//
// [Messenger] renders messages and posts them as the bot, and opens
// interactive dialogs.
//
// # Inbound endpoints
//
//   - POST /hooks/command receives slash commands. The token field must
//     match one of webhooks.command_tokens.
//   - POST /hooks/dialog receives dialog submissions. The URL carries a
//     per-process secret handed to Mattermost when the dialog is opened.
//
// # Sub-packages
//
//   - mattermostfmt escapes untrusted text for Mattermost markdown.
package connector
