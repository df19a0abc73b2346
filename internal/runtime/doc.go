// Package runtime provides the execution context for cw commands.
//
// It bundles the dependencies actions need: the engine over the current
// repository, the console logger, the user configuration, a prompter and a
// lazily created GitHub client.
package runtime
