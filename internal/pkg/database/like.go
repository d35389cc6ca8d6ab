package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern monta o padrão de busca parcial para `ILIKE $n ESCAPE '\'`,
// tratando os curingas digitados pelo usuário como literais.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
