package cmd

// Version is set at build time via -ldflags "-X github.com/zhibeky/quran-ai/cmd.Version=...".
var Version = "dev"
