package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRecordID gera ids para linhas de tabelas com volume alto (snapshots, logs).
func GenerateRecordID() (string, error) {
	return gonanoid.Generate(characters, 16)
}
