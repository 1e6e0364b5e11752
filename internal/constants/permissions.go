package constants

import "os"

// DirPermLogs — права директории файла логов: владелец rwx, группа r-x.
const DirPermLogs os.FileMode = 0750
