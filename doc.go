// Package voxgpt relays natural-language commands to a five-axis desktop
// robot arm driven by an ESP32 controller.
//
// Free text such as "move base to 45 degrees" or "close the gripper" is
// classified by a language model (Gemini) with a keyword matcher as fallback,
// translated into the controller's 5-degree step commands, and sent one HTTP
// call at a time. The tracked joint state only changes once every step has
// been acknowledged.
//
// # Installation
//
//	go install github.com/samaysahu/Vox-GPT/cmd/voxgpt@latest
//
// # Usage
//
// Write a config file, then start the relay:
//
//	voxgpt setup
//	voxgpt serve
//
// Talk to it from another terminal:
//
//	voxgpt send move elbow to 120 degrees
//	voxgpt chat
//	voxgpt monitor
//
// Without hardware, run the simulated controller and point the relay at it:
//
//	voxgpt simulate --listen :8081
//	voxgpt serve --device http://localhost:8081
//
// # Packages
//
//   - cmd/voxgpt: CLI with serve, send, chat, monitor, history, setup and simulate commands
//   - pkg/arm: Joint names, limits and the tracked state registry
//   - pkg/intent: Intent parsing (oracle and keyword matcher)
//   - pkg/plan: Step translation and execution
//   - pkg/device: Controller HTTP client and simulator
//   - pkg/relay: Request orchestration and replies
//   - pkg/server: HTTP API and client
//   - pkg/journal: SQLite command history
//   - pkg/metrics: Prometheus metrics
//   - pkg/config: Configuration loading
//   - pkg/teleop: Telemetry polling and keyboard jog control
package voxgpt
