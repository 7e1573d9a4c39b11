package provisioning

import (
	"fmt"

	"github.com/imamik/k8zdb/internal/util/shell"
	"github.com/imamik/k8zdb/internal/workload"
)

// ImportScript returns the in-container command importing an SQL file.
// Credentials come from the container environment, never the command line.
func ImportScript(kind workload.Kind, podPath string) (string, error) {
	switch kind {
	case workload.KindPostgreSQL:
		return `psql -v ON_ERROR_STOP=1 -U "$POSTGRES_USER" -d "$POSTGRES_DB" -f ` + shell.Quote(podPath), nil
	case workload.KindMySQL:
		return `MYSQL_PWD="$MYSQL_ROOT_PASSWORD" mysql -u root "$MYSQL_DATABASE" < ` + shell.Quote(podPath), nil
	default:
		return "", fmt.Errorf("%s does not support data import", kind)
	}
}
