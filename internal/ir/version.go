package ir

// EngineVersion is the relq release reported by the CLI.
const EngineVersion = "0.1.0"
