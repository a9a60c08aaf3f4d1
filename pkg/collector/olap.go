package collector

import (
	"sync"

	"fortio.org/safecast"
	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stleox/seecov/pkg/config"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// Olap is the optional OLAP sink: collected observations are bulk-inserted
// into a MySQL-protocol analytical store for offline querying.
type Olap struct {
	conn        sqlx.SqlConn
	obsInserter *sqlx.BulkInserter

	// 异常观测列表，包含情况：行号越界、插入失败。
	// 目前认为异常概率小
	arrExObs []Observation
	muExObs  sync.Mutex
}

func NewOlap(vp *viper.Viper) *Olap {
	// conn to the OLAP server
	olapDSN := vp.GetString("SEECOV_OLAP_DSN")
	if olapDSN == "" {
		olapDSN = config.SEECOV_DEFAULT_DSN
	}

	db := sqlx.NewMysql(olapDSN)

	err := CreateObsTable(db)
	if err != nil {
		logrus.WithError(err).Error("SeeCov couldn't create table t_Obs")
		return nil
	}

	obsInserter, err := NewObsInserter(db)
	if err != nil {
		logrus.WithError(err).Error("SeeCov couldn't open table t_Obs")
		return nil
	}

	return &Olap{
		conn:        db,
		obsInserter: obsInserter,
	}
}

func CreateObsTable(db sqlx.SqlConn) error {
	_, err := db.Exec("CREATE TABLE IF NOT EXISTS `t_Obs` " +
		"(file VARCHAR(255), " +
		"from_line INT, " +
		"to_line INT, " +
		"is_arc TINYINT, " +
		"plugin VARCHAR(63)) " +
		"DISTRIBUTED BY HASH(file) BUCKETS 32 " +
		"PROPERTIES (\"replication_num\" = \"1\");")
	return err
}

func NewObsInserter(db sqlx.SqlConn) (*sqlx.BulkInserter, error) {
	return sqlx.NewBulkInserter(db, "INSERT INTO `t_Obs` "+
		"(file, "+
		"from_line, "+
		"to_line, "+
		"is_arc, "+
		"plugin) "+
		"VALUES (?,?,?,?,?)")
}

// InsertObs queues one observation for bulk insertion.
func (o *Olap) InsertObs(obs Observation) error {
	from, err := safecast.Conv[int32](obs.From)
	if err != nil {
		o.AddExObs(obs)
		return err
	}
	to, err := safecast.Conv[int32](obs.To)
	if err != nil {
		o.AddExObs(obs)
		return err
	}

	isArc := 0
	if obs.IsArc {
		isArc = 1
	}
	err = o.obsInserter.Insert(obs.File, from, to, isArc, obs.Plugin)
	if err != nil {
		logrus.WithError(err).Warn("SeeCov couldn't insert into t_Obs")
		o.AddExObs(obs)
		return err
	}
	return nil
}

func (o *Olap) AddExObs(obs Observation) {
	o.muExObs.Lock()
	defer o.muExObs.Unlock()
	o.arrExObs = append(o.arrExObs, obs)
}

func (o *Olap) SummaryExObs() {
	o.muExObs.Lock()
	defer o.muExObs.Unlock()

	if len(o.arrExObs) == 0 {
		logrus.Info("SeeCov not found exceptional observations")
		return
	}
	logrus.Infof("SeeCov found %d exceptional observations:", len(o.arrExObs))
	for _, ex := range o.arrExObs {
		config.Log4ExObs.Infof("%+v", ex)
	}
}

func (o *Olap) Flush() {
	o.obsInserter.Flush()
}

func (o *Olap) Conn() sqlx.SqlConn {
	return o.conn
}

// CountObs counts inserted observations for one file.
func (o *Olap) CountObs(file string) int {
	var count int
	err := o.conn.QueryRow(&count, "SELECT COUNT(*) FROM `t_Obs` WHERE file = ?", file)
	if err != nil {
		logrus.WithError(err).Warn("SeeCov couldn't select t_Obs")
		return -1
	}
	return count
}
