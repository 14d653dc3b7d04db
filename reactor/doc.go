// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness reactor abstraction and its
// implementations: level-triggered epoll over eventfd signals on Linux, and a
// portable watch-list reactor over counter signals on every platform.
package reactor
