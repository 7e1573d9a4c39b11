package manifest

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/imamik/k8zdb/internal/util/shell"
	"github.com/imamik/k8zdb/internal/workload"
)

type kindTemplate struct {
	dataPath string
	env      func(secretName string) []corev1.EnvVar
	probe    func(spec workload.Spec, info workload.KindInfo) *corev1.Probe
}

var templates = map[workload.Kind]kindTemplate{
	workload.KindPostgreSQL: {
		dataPath: "/var/lib/postgresql/data",
		env: func(secretName string) []corev1.EnvVar {
			return []corev1.EnvVar{
				fromSecret("POSTGRES_DB", secretName, SecretKeyDatabase),
				fromSecret("POSTGRES_USER", secretName, SecretKeyUsername),
				fromSecret("POSTGRES_PASSWORD", secretName, SecretKeyPassword),
				{Name: "PGDATA", Value: "/var/lib/postgresql/data/pgdata"},
			}
		},
		probe: func(spec workload.Spec, _ workload.KindInfo) *corev1.Probe {
			return execProbe(shell.Command("pg_isready", "-h", "127.0.0.1", "-U", spec.User, "-d", spec.Database))
		},
	},
	workload.KindMySQL: {
		dataPath: "/var/lib/mysql",
		env: func(secretName string) []corev1.EnvVar {
			return []corev1.EnvVar{
				fromSecret("MYSQL_DATABASE", secretName, SecretKeyDatabase),
				fromSecret("MYSQL_USER", secretName, SecretKeyUsername),
				fromSecret("MYSQL_PASSWORD", secretName, SecretKeyPassword),
				fromSecret("MYSQL_ROOT_PASSWORD", secretName, SecretKeyPassword),
			}
		},
		// The password reaches the client through MYSQL_PWD; only the user name is spliced.
		probe: func(spec workload.Spec, _ workload.KindInfo) *corev1.Probe {
			return execProbe(`MYSQL_PWD="$MYSQL_PASSWORD" ` + shell.Command("mysqladmin", "ping", "-h", "127.0.0.1", "-u", spec.User))
		},
	},
	workload.KindMongoDB: {
		dataPath: "/data/db",
		env: func(secretName string) []corev1.EnvVar {
			return []corev1.EnvVar{
				fromSecret("MONGO_INITDB_DATABASE", secretName, SecretKeyDatabase),
				fromSecret("MONGO_INITDB_ROOT_USERNAME", secretName, SecretKeyUsername),
				fromSecret("MONGO_INITDB_ROOT_PASSWORD", secretName, SecretKeyPassword),
			}
		},
		probe: func(_ workload.Spec, info workload.KindInfo) *corev1.Probe {
			return &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{
					TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt32(info.Port)},
				},
				InitialDelaySeconds: 5,
				PeriodSeconds:       10,
			}
		},
	},
}

func fromSecret(name, secretName, key string) corev1.EnvVar {
	return corev1.EnvVar{
		Name: name,
		ValueFrom: &corev1.EnvVarSource{
			SecretKeyRef: &corev1.SecretKeySelector{
				LocalObjectReference: corev1.LocalObjectReference{Name: secretName},
				Key:                  key,
			},
		},
	}
}

func execProbe(cmd string) *corev1.Probe {
	return &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			Exec: &corev1.ExecAction{Command: []string{"sh", "-c", cmd}},
		},
		InitialDelaySeconds: 5,
		PeriodSeconds:       10,
		TimeoutSeconds:      5,
	}
}
