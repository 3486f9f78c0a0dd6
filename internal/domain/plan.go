package domain

// TransferPlan 规划一个文件的去向（只描述 src/dst；真正执行由 organize 负责）。
type TransferPlan struct {
	Record   FileRecord
	Category string
	DstDir   string
	DstAbs   string
}
